package directory

import (
	"fmt"
	"strings"
	"time"

	"invoicelink/internal/models"
)

type AccountStatusFilter string

const (
	AccountsAll      AccountStatusFilter = "all"
	AccountsPending  AccountStatusFilter = "pending"
	AccountsApproved AccountStatusFilter = "approved"
	AccountsTrial    AccountStatusFilter = "trial"
	AccountsActive   AccountStatusFilter = "active"
	AccountsCanceled AccountStatusFilter = "canceled"
)

// ParseAccountStatus maps a query-string value to a filter. Empty means all.
func ParseAccountStatus(s string) (AccountStatusFilter, error) {
	f := AccountStatusFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return AccountsAll, nil
	case AccountsAll, AccountsPending, AccountsApproved, AccountsTrial, AccountsActive, AccountsCanceled:
		return f, nil
	}
	return "", models.NewValidationError("status", fmt.Sprintf("unknown account status filter %q", s))
}

type AccountQuery struct {
	Text   string
	Status AccountStatusFilter
}

// Predicate returns the status test for f evaluated at now.
func (f AccountStatusFilter) Predicate(now time.Time) func(*models.Account) bool {
	switch f {
	case AccountsPending:
		return func(a *models.Account) bool { return !a.IsApproved }
	case AccountsApproved:
		return func(a *models.Account) bool { return a.IsApproved }
	case AccountsTrial:
		return func(a *models.Account) bool {
			return a.IsApproved && a.TrialEndsAt != nil && a.TrialEndsAt.After(now)
		}
	case AccountsActive:
		return func(a *models.Account) bool {
			return a.IsApproved && a.SubscriptionStatus == models.StatusActive
		}
	case AccountsCanceled:
		return func(a *models.Account) bool { return a.SubscriptionStatus == models.StatusCanceled }
	}
	return nil
}

// FilterAccounts applies q to accounts as of now.
func FilterAccounts(accounts []*models.Account, q AccountQuery, now time.Time) []*models.Account {
	return Filter(accounts, q.Text, q.Status.Predicate(now))
}
