package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicelink/internal/directory"
	"invoicelink/internal/lifecycle"
	"invoicelink/internal/metrics"
	"invoicelink/internal/models"
	"invoicelink/internal/repositories"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testAdminEmail = "admin@theinvoicelink.com"

type AccountServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *clockwork.FakeClock
	accounts repositories.AccountRepository
	audit    AuditLogsService
	service  AccountService
	adminID  uuid.UUID
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.clock = clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	suite.accounts = repositories.NewMemoryAccountRepo()
	suite.audit = NewAuditLogsService(repositories.NewMemoryAuditLogsRepo(), suite.clock)
	suite.service = NewAccountService(suite.accounts, suite.audit, suite.clock, metrics.Nop(), zerolog.Nop(), testAdminEmail)
	suite.adminID = uuid.New()
}

func registerRequest(email, business, address, postcode string) *RegisterRequest {
	return &RegisterRequest{
		FullName:     "Alice Smith",
		Email:        email,
		Password:     "secret123",
		BusinessName: business,
		Address:      address,
		City:         "London",
		Postcode:     postcode,
		Phone:        "020 7946 0000",
	}
}

func (suite *AccountServiceTestSuite) register(email string) *models.Account {
	acc, err := suite.service.Register(suite.ctx, registerRequest(email, "Smith & Co "+email, "1 High Street", "N1 1AA"))
	suite.Require().NoError(err)
	return acc
}

func (suite *AccountServiceTestSuite) TestRegister_CreatesPendingAccount() {
	acc, err := suite.service.Register(suite.ctx, registerRequest("  Alice@Example.com ", "Smith & Co", "1 High Street", "N1 1AA"))
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "alice@example.com", acc.Email)
	assert.Equal(suite.T(), models.StatusPending, acc.SubscriptionStatus)
	assert.False(suite.T(), acc.IsApproved)
	assert.Nil(suite.T(), acc.TrialEndsAt)
	assert.True(suite.T(), acc.SubscriptionAmount.Equal(decimal.RequireFromString("9.99")))
	assert.NotEqual(suite.T(), "secret123", acc.PasswordHash)
	assert.NoError(suite.T(), lifecycle.CheckInvariants(acc))

	history, err := suite.service.GetHistory(suite.ctx, acc.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), history, 1)
	assert.Equal(suite.T(), models.ActionRegister, history[0].Action)
	assert.Nil(suite.T(), history[0].ActorID)
}

func (suite *AccountServiceTestSuite) TestRegister_DuplicateBusiness() {
	_, err := suite.service.Register(suite.ctx, registerRequest("a@example.com", "Smith & Co", "1 High Street", "N1 1AA"))
	require.NoError(suite.T(), err)

	_, err = suite.service.Register(suite.ctx, registerRequest("b@example.com", " smith & co", "1 HIGH STREET ", "n1 1aa"))
	assert.ErrorIs(suite.T(), err, models.ErrDuplicateBusiness)

	accounts, err := suite.accounts.List(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), accounts, 1)
}

func (suite *AccountServiceTestSuite) TestRegister_SingleDifferingFieldIsAccepted() {
	_, err := suite.service.Register(suite.ctx, registerRequest("a@example.com", "Smith & Co", "1 High Street", "N1 1AA"))
	require.NoError(suite.T(), err)

	cases := []*RegisterRequest{
		registerRequest("b@example.com", "Smith & Sons", "1 High Street", "N1 1AA"),
		registerRequest("c@example.com", "Smith & Co", "2 High Street", "N1 1AA"),
		registerRequest("d@example.com", "Smith & Co", "1 High Street", "N1 2BB"),
	}
	for _, req := range cases {
		_, err := suite.service.Register(suite.ctx, req)
		assert.NoError(suite.T(), err, req.Email)
	}
}

func (suite *AccountServiceTestSuite) TestRegister_DuplicateEmail() {
	suite.register("a@example.com")

	_, err := suite.service.Register(suite.ctx, registerRequest("A@EXAMPLE.COM", "Other Ltd", "9 Low Road", "E1 1AA"))
	assert.ErrorIs(suite.T(), err, models.ErrDuplicateEmail)
}

func (suite *AccountServiceTestSuite) TestRegister_ValidationFailure() {
	req := registerRequest("not-an-email", "S", "1 High Street", "N1 1AA")
	req.Password = "123"

	_, err := suite.service.Register(suite.ctx, req)
	require.ErrorIs(suite.T(), err, models.ErrValidationFailed)

	var verr *models.ValidationError
	require.True(suite.T(), errors.As(err, &verr))
	assert.Contains(suite.T(), verr.Fields, "email")
	assert.Contains(suite.T(), verr.Fields, "password")
	assert.Contains(suite.T(), verr.Fields, "business_name")
}

func (suite *AccountServiceTestSuite) TestApprove_StartsFiveDayTrial() {
	acc := suite.register("a@example.com")

	approved, err := suite.service.Approve(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)

	assert.True(suite.T(), approved.IsApproved)
	assert.Equal(suite.T(), models.StatusTrial, approved.SubscriptionStatus)
	require.NotNil(suite.T(), approved.TrialEndsAt)
	assert.True(suite.T(), approved.TrialEndsAt.Equal(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(suite.T(), 5, lifecycle.TrialDaysLeft(approved, suite.clock.Now()))

	history, err := suite.service.GetHistory(suite.ctx, acc.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), history, 2)
	assert.Equal(suite.T(), models.ActionApprove, history[1].Action)
	require.NotNil(suite.T(), history[1].ActorID)
	assert.Equal(suite.T(), suite.adminID, *history[1].ActorID)
	assert.Equal(suite.T(), models.StatusPending, history[1].OldStatus)
	assert.Equal(suite.T(), models.StatusTrial, history[1].NewStatus)
}

func (suite *AccountServiceTestSuite) TestApprove_Twice() {
	acc := suite.register("a@example.com")
	_, err := suite.service.Approve(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)

	_, err = suite.service.Approve(suite.ctx, suite.adminID, acc.ID)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)
}

func (suite *AccountServiceTestSuite) TestApprove_UnknownAccount() {
	_, err := suite.service.Approve(suite.ctx, suite.adminID, uuid.New())
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestReject_DeletesPendingAccount() {
	acc := suite.register("a@example.com")

	require.NoError(suite.T(), suite.service.Reject(suite.ctx, suite.adminID, acc.ID))

	_, err := suite.service.GetAccount(suite.ctx, acc.ID)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)

	history, err := suite.service.GetHistory(suite.ctx, acc.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), history, 2)
	assert.Equal(suite.T(), models.ActionReject, history[1].Action)
	assert.Equal(suite.T(), "a@example.com", history[1].Details["email"])
}

func (suite *AccountServiceTestSuite) TestReject_ApprovedAccount() {
	acc := suite.register("a@example.com")
	_, err := suite.service.Approve(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)

	err = suite.service.Reject(suite.ctx, suite.adminID, acc.ID)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)

	_, err = suite.service.GetAccount(suite.ctx, acc.ID)
	assert.NoError(suite.T(), err)
}

func (suite *AccountServiceTestSuite) TestActivateAndCancel() {
	acc := suite.register("a@example.com")

	_, err := suite.service.Activate(suite.ctx, suite.adminID, acc.ID)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)

	_, err = suite.service.Approve(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)

	active, err := suite.service.Activate(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusActive, active.SubscriptionStatus)

	canceled, err := suite.service.Cancel(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusCanceled, canceled.SubscriptionStatus)
	assert.NotNil(suite.T(), canceled.TrialEndsAt)

	_, err = suite.service.Cancel(suite.ctx, suite.adminID, acc.ID)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)
	_, err = suite.service.Activate(suite.ctx, suite.adminID, acc.ID)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)
}

func (suite *AccountServiceTestSuite) TestSetSubscriptionAmount() {
	acc := suite.register("a@example.com")

	_, err := suite.service.SetSubscriptionAmount(suite.ctx, suite.adminID, acc.ID, decimal.RequireFromString("19.99"))
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)

	_, err = suite.service.Approve(suite.ctx, suite.adminID, acc.ID)
	require.NoError(suite.T(), err)

	_, err = suite.service.SetSubscriptionAmount(suite.ctx, suite.adminID, acc.ID, decimal.NewFromInt(-5))
	assert.ErrorIs(suite.T(), err, models.ErrInvalidAmount)

	stored, err := suite.service.GetAccount(suite.ctx, acc.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), stored.SubscriptionAmount.Equal(models.DefaultSubscriptionAmount))

	updated, err := suite.service.SetSubscriptionAmount(suite.ctx, suite.adminID, acc.ID, decimal.RequireFromString("19.99"))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "19.99", updated.SubscriptionAmount.StringFixed(2))
	assert.Equal(suite.T(), models.StatusTrial, updated.SubscriptionStatus)

	history, err := suite.service.GetHistory(suite.ctx, acc.ID)
	require.NoError(suite.T(), err)
	last := history[len(history)-1]
	assert.Equal(suite.T(), models.ActionAmountChange, last.Action)
	assert.Equal(suite.T(), map[string]string{"from": "9.99", "to": "19.99"}, last.Details)
}

func (suite *AccountServiceTestSuite) TestSweepExpiredTrials() {
	expiring := suite.register("a@example.com")
	_, err := suite.service.Approve(suite.ctx, suite.adminID, expiring.ID)
	require.NoError(suite.T(), err)

	suite.clock.Advance(3 * 24 * time.Hour)
	fresh := suite.register("b@example.com")
	_, err = suite.service.Approve(suite.ctx, suite.adminID, fresh.ID)
	require.NoError(suite.T(), err)

	suite.clock.Advance(3 * 24 * time.Hour)

	n, err := suite.service.SweepExpiredTrials(suite.ctx, false)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)

	stored, err := suite.service.GetAccount(suite.ctx, expiring.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusTrial, stored.SubscriptionStatus)

	n, err = suite.service.SweepExpiredTrials(suite.ctx, true)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)

	stored, err = suite.service.GetAccount(suite.ctx, expiring.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusCanceled, stored.SubscriptionStatus)

	stored, err = suite.service.GetAccount(suite.ctx, fresh.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusTrial, stored.SubscriptionStatus)

	n, err = suite.service.SweepExpiredTrials(suite.ctx, true)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n)
}

func (suite *AccountServiceTestSuite) TestListAccountsAndStats() {
	pending := suite.register("pending@example.com")
	trial := suite.register("trial@example.com")
	active := suite.register("active@example.com")

	_, err := suite.service.Approve(suite.ctx, suite.adminID, trial.ID)
	require.NoError(suite.T(), err)
	_, err = suite.service.Approve(suite.ctx, suite.adminID, active.ID)
	require.NoError(suite.T(), err)
	_, err = suite.service.Activate(suite.ctx, suite.adminID, active.ID)
	require.NoError(suite.T(), err)
	_, err = suite.service.SetSubscriptionAmount(suite.ctx, suite.adminID, active.ID, decimal.RequireFromString("20.00"))
	require.NoError(suite.T(), err)

	list, err := suite.service.ListAccounts(suite.ctx, directory.AccountQuery{Status: directory.AccountsPending})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list, 1)
	assert.Equal(suite.T(), pending.ID, list[0].ID)

	list, err = suite.service.ListAccounts(suite.ctx, directory.AccountQuery{Text: "TRIAL@", Status: directory.AccountsAll})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list, 1)
	assert.Equal(suite.T(), trial.ID, list[0].ID)

	stats, err := suite.service.GetStats(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, stats.Total)
	assert.Equal(suite.T(), 1, stats.Pending)
	// the trial filter is date based, so the active account still inside its trial window counts
	assert.Equal(suite.T(), 2, stats.Trial)
	assert.Equal(suite.T(), 1, stats.Active)
	assert.Equal(suite.T(), 0, stats.Canceled)
	assert.Equal(suite.T(), "20.00", stats.MonthlyRevenue.StringFixed(2))
}

func (suite *AccountServiceTestSuite) TestEnsureAdmin_Idempotent() {
	admin, err := suite.service.EnsureAdmin(suite.ctx, "Admin@TheInvoiceLink.com", "changeme")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "admin@theinvoicelink.com", admin.Email)
	assert.True(suite.T(), admin.IsApproved)
	assert.Equal(suite.T(), models.StatusActive, admin.SubscriptionStatus)

	again, err := suite.service.EnsureAdmin(suite.ctx, "admin@theinvoicelink.com", "changeme")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), admin.ID, again.ID)
}

func (suite *AccountServiceTestSuite) TestAdminAccountIsNotABusiness() {
	admin, err := suite.service.EnsureAdmin(suite.ctx, testAdminEmail, "changeme")
	require.NoError(suite.T(), err)

	stats, err := suite.service.GetStats(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, stats.Total)
	assert.Equal(suite.T(), 0, stats.Active)
	assert.True(suite.T(), stats.MonthlyRevenue.IsZero())

	list, err := suite.service.ListAccounts(suite.ctx, directory.AccountQuery{Status: directory.AccountsAll})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), list)

	_, err = suite.service.Cancel(suite.ctx, admin.ID, admin.ID)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)
	_, err = suite.service.SetSubscriptionAmount(suite.ctx, admin.ID, admin.ID, decimal.RequireFromString("5.00"))
	assert.ErrorIs(suite.T(), err, models.ErrInvalidStateTransition)
	assert.ErrorIs(suite.T(), suite.service.Reject(suite.ctx, admin.ID, admin.ID), models.ErrInvalidStateTransition)

	stored, err := suite.accounts.GetByID(suite.ctx, admin.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusActive, stored.SubscriptionStatus)
	assert.True(suite.T(), stored.SubscriptionAmount.Equal(models.DefaultSubscriptionAmount))
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func TestAccountService_ConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := &MockAccountRepository{}
	auditRepo := &MockAuditLogsRepository{}
	service := NewAccountService(repo, NewAuditLogsService(auditRepo, clock), clock, metrics.Nop(), zerolog.Nop(), testAdminEmail)

	acc := &models.Account{
		ID:                 uuid.New(),
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: models.StatusPending,
		Version:            3,
	}
	repo.On("GetByID", ctx, acc.ID).Return(acc, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.Account")).Return(models.ErrConcurrentUpdate)

	_, err := service.Approve(ctx, uuid.New(), acc.ID)

	assert.ErrorIs(t, err, models.ErrConcurrentUpdate)
	auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAccountService_AuditFailureDoesNotFailTransition(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := &MockAccountRepository{}
	auditRepo := &MockAuditLogsRepository{}
	service := NewAccountService(repo, NewAuditLogsService(auditRepo, clock), clock, metrics.Nop(), zerolog.Nop(), testAdminEmail)

	acc := &models.Account{
		ID:                 uuid.New(),
		IsApproved:         true,
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: models.StatusTrial,
	}
	repo.On("GetByID", ctx, acc.ID).Return(acc, nil)
	repo.On("Update", ctx, acc).Return(nil)
	auditRepo.On("Create", ctx, mock.Anything).Return(errors.New("audit store unavailable"))

	updated, err := service.Activate(ctx, uuid.New(), acc.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, updated.SubscriptionStatus)
	auditRepo.AssertExpectations(t)
}
