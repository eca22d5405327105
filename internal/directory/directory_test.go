package directory

import (
	"testing"
	"time"

	"invoicelink/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func account(name, business, email string, status models.SubscriptionStatus, trialEnds *time.Time) *models.Account {
	return &models.Account{
		ID:                 uuid.New(),
		FullName:           name,
		BusinessName:       business,
		Email:              email,
		IsApproved:         status != models.StatusPending,
		TrialEndsAt:        trialEnds,
		SubscriptionStatus: status,
		SubscriptionAmount: models.DefaultSubscriptionAmount,
	}
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func fixtures() []*models.Account {
	return []*models.Account{
		account("Alice Smith", "Smith & Co", "alice@smith.test", models.StatusPending, nil),
		account("Bob Jones", "Jones Plumbing", "bob@jones.test", models.StatusTrial, at(48*time.Hour)),
		account("Carol Blacksmith", "Forge Works", "carol@forge.test", models.StatusActive, at(-72*time.Hour)),
		account("Dan Brown", "Brown Bakery", "dan@SMITHFIELD.test", models.StatusCanceled, at(-24*time.Hour)),
		account("Erin White", "White Cafe", "erin@white.test", models.StatusTrial, at(-time.Hour)),
	}
}

func names(accounts []*models.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.FullName)
	}
	return out
}

func TestFilterAccounts_TextSmith(t *testing.T) {
	got := FilterAccounts(fixtures(), AccountQuery{Text: "smith", Status: AccountsAll}, now)

	assert.Equal(t, []string{"Alice Smith", "Carol Blacksmith", "Dan Brown"}, names(got))
}

func TestFilterAccounts_Status(t *testing.T) {
	cases := map[AccountStatusFilter][]string{
		AccountsAll:      {"Alice Smith", "Bob Jones", "Carol Blacksmith", "Dan Brown", "Erin White"},
		AccountsPending:  {"Alice Smith"},
		AccountsApproved: {"Bob Jones", "Carol Blacksmith", "Dan Brown", "Erin White"},
		AccountsTrial:    {"Bob Jones"},
		AccountsActive:   {"Carol Blacksmith"},
		AccountsCanceled: {"Dan Brown"},
	}
	for status, want := range cases {
		t.Run(string(status), func(t *testing.T) {
			got := FilterAccounts(fixtures(), AccountQuery{Status: status}, now)
			assert.Equal(t, want, names(got))
		})
	}
}

func TestFilterAccounts_TextAndStatus(t *testing.T) {
	got := FilterAccounts(fixtures(), AccountQuery{Text: "SMITH", Status: AccountsApproved}, now)
	assert.Equal(t, []string{"Carol Blacksmith", "Dan Brown"}, names(got))
}

func TestFilterAccounts_NoMatch(t *testing.T) {
	got := FilterAccounts(fixtures(), AccountQuery{Text: "zzz"}, now)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterAccounts_Idempotent(t *testing.T) {
	q := AccountQuery{Text: "o", Status: AccountsApproved}
	once := FilterAccounts(fixtures(), q, now)
	twice := FilterAccounts(once, q, now)
	assert.Equal(t, once, twice)
}

func TestFilterAccounts_DoesNotMutateInput(t *testing.T) {
	in := fixtures()
	snapshot := names(in)

	_ = FilterAccounts(in, AccountQuery{Text: "smith", Status: AccountsPending}, now)
	assert.Equal(t, snapshot, names(in))
}

func TestParseAccountStatus(t *testing.T) {
	f, err := ParseAccountStatus("")
	require.NoError(t, err)
	assert.Equal(t, AccountsAll, f)

	f, err = ParseAccountStatus(" Trial ")
	require.NoError(t, err)
	assert.Equal(t, AccountsTrial, f)

	_, err = ParseAccountStatus("expired")
	assert.ErrorIs(t, err, models.ErrValidationFailed)
}

func TestFilterInvoices(t *testing.T) {
	invoices := []*models.Invoice{
		{InvoiceNumber: "INV-001", CustomerName: "Acme Ltd", Status: models.InvoiceStatusPaid},
		{InvoiceNumber: "INV-002", CustomerName: "Globex", Status: models.InvoiceStatusSent},
		{InvoiceNumber: "INV-003", CustomerName: "acme north", Status: models.InvoiceStatusOverdue},
	}

	got := FilterInvoices(invoices, InvoiceQuery{Text: "ACME"})
	require.Len(t, got, 2)
	assert.Equal(t, "INV-001", got[0].InvoiceNumber)
	assert.Equal(t, "INV-003", got[1].InvoiceNumber)

	got = FilterInvoices(invoices, InvoiceQuery{Text: "acme", Status: InvoiceStatusFilter(models.InvoiceStatusOverdue)})
	require.Len(t, got, 1)
	assert.Equal(t, "INV-003", got[0].InvoiceNumber)

	got = FilterInvoices(invoices, InvoiceQuery{Text: "inv-00", Status: InvoicesAll})
	assert.Len(t, got, 3)
}

func TestParseInvoiceStatus(t *testing.T) {
	f, err := ParseInvoiceStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusFilter("paid"), f)

	_, err = ParseInvoiceStatus("void")
	assert.Error(t, err)
}
