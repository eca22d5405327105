package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	"golang.org/x/crypto/bcrypt"
)

type AccountService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	ListAccounts(ctx context.Context, query directory.AccountQuery) ([]*models.Account, error)
	GetStats(ctx context.Context) (*AccountStats, error)
	GetHistory(ctx context.Context, id uuid.UUID) ([]*models.AuditLog, error)

	// Administrative lifecycle actions. actor is the admin performing them.
	Approve(ctx context.Context, actor, id uuid.UUID) (*models.Account, error)
	Reject(ctx context.Context, actor, id uuid.UUID) error
	Activate(ctx context.Context, actor, id uuid.UUID) (*models.Account, error)
	Cancel(ctx context.Context, actor, id uuid.UUID) (*models.Account, error)
	SetSubscriptionAmount(ctx context.Context, actor, id uuid.UUID, amount decimal.Decimal) (*models.Account, error)

	// SweepExpiredTrials finds trial accounts whose trial has ended. With
	// apply set they are moved to canceled; otherwise they are only counted.
	SweepExpiredTrials(ctx context.Context, apply bool) (int, error)

	// EnsureAdmin creates the administrator account if it does not exist.
	EnsureAdmin(ctx context.Context, email, password string) (*models.Account, error)
}

type RegisterRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	BusinessName string `json:"business_name" validate:"required,min=2"`
	Address      string `json:"address" validate:"required,min=5"`
	City         string `json:"city" validate:"required,min=2"`
	Postcode     string `json:"postcode" validate:"required,min=2"`
	Phone        string `json:"phone" validate:"required,min=5"`
}

type AccountStats struct {
	Total          int             `json:"total"`
	Pending        int             `json:"pending"`
	Trial          int             `json:"trial"`
	Active         int             `json:"active"`
	Canceled       int             `json:"canceled"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
}

type accountService struct {
	accounts   repositories.AccountRepository
	adminEmail string
	audit    AuditLogsService
	clock    clockwork.Clock
	metrics  metrics.Metrics
	log      zerolog.Logger
}

// NewAccountService builds the account service. The account registered under
// adminEmail is the operator's own and is kept out of the business directory.
func NewAccountService(accounts repositories.AccountRepository, audit AuditLogsService, clock clockwork.Clock, m metrics.Metrics, log zerolog.Logger, adminEmail string) AccountService {
	return &accountService{
		accounts:   accounts,
		adminEmail: models.NormalizeEmail(adminEmail),
		audit:    audit,
		clock:    clock,
		metrics:  m,
		log:      log.With().Str("component", "accounts").Logger(),
	}
}

func (s *accountService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *accountService) isAdmin(acc *models.Account) bool {
	return s.adminEmail != "" && acc.Email == s.adminEmail
}

// businesses lists every account except the administrator's.
func (s *accountService) businesses(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	out := accounts[:0:0]
	for _, acc := range accounts {
		if !s.isAdmin(acc) {
			out = append(out, acc)
		}
	}
	return out, nil
}

func errAdminAccount() error {
	return fmt.Errorf("%w: the administrator account cannot be changed", models.ErrInvalidStateTransition)
}

func (s *accountService) Register(ctx context.Context, req *RegisterRequest) (*models.Account, error) {
	req.Email = models.NormalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.Postcode = strings.TrimSpace(req.Postcode)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := validateStruct(req); err != nil {
		s.metrics.IncRegistration("invalid")
		return nil, err
	}

	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		s.metrics.IncRegistration("duplicate_email")
		return nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	key := models.NewBusinessKey(req.BusinessName, req.Address, req.Postcode)
	if _, err := s.accounts.FindByBusiness(ctx, key); err == nil {
		s.metrics.IncRegistration("duplicate_business")
		return nil, models.ErrDuplicateBusiness
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check business: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	acc := &models.Account{
		ID:                 uuid.New(),
		Email:              req.Email,
		PasswordHash:       string(hash),
		FullName:           req.FullName,
		BusinessName:       req.BusinessName,
		Address:            req.Address,
		City:               req.City,
		Postcode:           req.Postcode,
		Phone:              req.Phone,
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: models.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			s.metrics.IncRegistration("duplicate_email")
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.record(ctx, acc.ID, models.ActionRegister, nil, "", models.StatusPending, map[string]string{
		"email":         acc.Email,
		"business_name": acc.BusinessName,
	})
	s.metrics.IncRegistration("created")
	s.log.Info().Str("account_id", acc.ID.String()).Str("business", acc.BusinessName).Msg("account registered")
	return acc, nil
}

func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", id, err)
	}
	return acc, nil
}

func (s *accountService) ListAccounts(ctx context.Context, query directory.AccountQuery) ([]*models.Account, error) {
	accounts, err := s.businesses(ctx)
	if err != nil {
		return nil, err
	}
	return directory.FilterAccounts(accounts, query, s.now()), nil
}

func (s *accountService) GetStats(ctx context.Context) (*AccountStats, error) {
	accounts, err := s.businesses(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stats := &AccountStats{
		Total:          len(accounts),
		Pending:        len(directory.FilterAccounts(accounts, directory.AccountQuery{Status: directory.AccountsPending}, now)),
		Trial:          len(directory.FilterAccounts(accounts, directory.AccountQuery{Status: directory.AccountsTrial}, now)),
		Canceled:       len(directory.FilterAccounts(accounts, directory.AccountQuery{Status: directory.AccountsCanceled}, now)),
		MonthlyRevenue: decimal.Zero,
	}
	for _, acc := range directory.FilterAccounts(accounts, directory.AccountQuery{Status: directory.AccountsActive}, now) {
		stats.Active++
		stats.MonthlyRevenue = stats.MonthlyRevenue.Add(acc.SubscriptionAmount)
	}
	return stats, nil
}

func (s *accountService) GetHistory(ctx context.Context, id uuid.UUID) ([]*models.AuditLog, error) {
	return s.audit.GetAccountHistory(ctx, id)
}

func (s *accountService) Approve(ctx context.Context, actor, id uuid.UUID) (*models.Account, error) {
	return s.transition(ctx, actor, id, models.ActionApprove, lifecycle.Approve, nil)
}

func (s *accountService) Activate(ctx context.Context, actor, id uuid.UUID) (*models.Account, error) {
	return s.transition(ctx, actor, id, models.ActionActivate, lifecycle.Activate, nil)
}

func (s *accountService) Cancel(ctx context.Context, actor, id uuid.UUID) (*models.Account, error) {
	return s.transition(ctx, actor, id, models.ActionCancel, lifecycle.Cancel, nil)
}

func (s *accountService) SetSubscriptionAmount(ctx context.Context, actor, id uuid.UUID, amount decimal.Decimal) (*models.Account, error) {
	var previous decimal.Decimal
	apply := func(acc *models.Account, now time.Time) error {
		previous = acc.SubscriptionAmount
		return lifecycle.SetSubscriptionAmount(acc, amount, now)
	}
	details := func() map[string]string {
		return map[string]string{"from": previous.StringFixed(2), "to": amount.StringFixed(2)}
	}
	return s.transition(ctx, actor, id, models.ActionAmountChange, apply, details)
}

// transition loads the account, applies fn with a single reading of the
// clock and writes the result back under the optimistic version check.
func (s *accountService) transition(ctx context.Context, actor, id uuid.UUID, action string, fn func(*models.Account, time.Time) error, details func() map[string]string) (*models.Account, error) {
	label := strings.ToLower(action)
	now := s.now()

	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", id, err)
	}
	if s.isAdmin(acc) {
		s.metrics.IncTransition(label, "rejected")
		return nil, errAdminAccount()
	}

	from := acc.SubscriptionStatus
	if err := fn(acc, now); err != nil {
		s.metrics.IncTransition(label, "rejected")
		return nil, err
	}

	if err := s.accounts.Update(ctx, acc); err != nil {
		s.metrics.IncTransition(label, "conflict")
		return nil, fmt.Errorf("failed to %s account %s: %w", label, id, err)
	}

	var d map[string]string
	if details != nil {
		d = details()
	}
	s.record(ctx, acc.ID, action, actorRef(actor), from, acc.SubscriptionStatus, d)
	s.metrics.IncTransition(label, "ok")
	s.log.Info().
		Str("account_id", acc.ID.String()).
		Str("action", label).
		Str("from", string(from)).
		Str("to", string(acc.SubscriptionStatus)).
		Msg("account updated")
	return acc, nil
}

// Reject removes a pending registration entirely. The audit trail keeps a
// record of it.
func (s *accountService) Reject(ctx context.Context, actor, id uuid.UUID) error {
	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("account %s: %w", id, err)
	}
	if s.isAdmin(acc) {
		s.metrics.IncTransition("reject", "rejected")
		return errAdminAccount()
	}
	if err := lifecycle.CheckRejectable(acc); err != nil {
		s.metrics.IncTransition("reject", "rejected")
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}

	s.record(ctx, acc.ID, models.ActionReject, actorRef(actor), acc.SubscriptionStatus, "", map[string]string{
		"email":         acc.Email,
		"business_name": acc.BusinessName,
	})
	s.metrics.IncTransition("reject", "ok")
	s.log.Info().Str("account_id", acc.ID.String()).Msg("registration rejected")
	return nil
}

func (s *accountService) SweepExpiredTrials(ctx context.Context, apply bool) (int, error) {
	accounts, err := s.businesses(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	for _, acc := range accounts {
		if !lifecycle.IsTrialExpired(acc, now) {
			continue
		}
		if !apply {
			expired++
			continue
		}
		lifecycle.ExpireTrial(acc, now)
		if err := s.accounts.Update(ctx, acc); err != nil {
			s.log.Warn().Err(err).Str("account_id", acc.ID.String()).Msg("failed to expire trial")
			continue
		}
		s.record(ctx, acc.ID, models.ActionTrialExpired, nil, models.StatusTrial, models.StatusCanceled, map[string]string{
			"trial_ends_at": acc.TrialEndsAt.Format(time.RFC3339),
		})
		expired++
	}

	if apply {
		s.metrics.IncTrialsExpired(expired)
	}
	s.log.Info().Int("expired", expired).Bool("applied", apply).Msg("trial expiry sweep finished")
	return expired, nil
}

func (s *accountService) EnsureAdmin(ctx context.Context, email, password string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	if len(password) < 6 {
		return nil, models.NewValidationError("password", "admin password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now()
	admin := &models.Account{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       string(hash),
		FullName:           "Administrator",
		BusinessName:       "InvoiceLink",
		IsApproved:         true,
		SubscriptionAmount: models.DefaultSubscriptionAmount,
		SubscriptionStatus: models.StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("admin account created")
	return admin, nil
}

func (s *accountService) record(ctx context.Context, id uuid.UUID, action string, actor *uuid.UUID, from, to models.SubscriptionStatus, details map[string]string) {
	if err := s.audit.LogTransition(ctx, id, action, actor, from, to, details); err != nil {
		s.log.Error().Err(err).Str("account_id", id.String()).Str("action", action).Msg("failed to write audit log")
	}
}

func actorRef(actor uuid.UUID) *uuid.UUID {
	if actor == uuid.Nil {
		return nil
	}
	return &actor
}
