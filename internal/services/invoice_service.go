package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicelink/internal/billing"
	"invoicelink/internal/directory"
	"invoicelink/internal/metrics"
	"invoicelink/internal/models"
	"invoicelink/internal/repositories"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const numberAllocationAttempts = 3

type InvoiceService interface {
	NewDraft(ctx context.Context) *models.InvoiceDraft
	// Preview computes totals for a draft and reports what would block submission.
	Preview(ctx context.Context, draft *models.InvoiceDraft) *DraftPreview
	Submit(ctx context.Context, accountID uuid.UUID, draft *models.InvoiceDraft) (*models.Invoice, error)

	GetInvoice(ctx context.Context, accountID, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, accountID uuid.UUID, query directory.InvoiceQuery) ([]*models.Invoice, error)
	UpdateStatus(ctx context.Context, accountID, id uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error)
	GetSummary(ctx context.Context, accountID uuid.UUID) (*billing.Summary, error)
	GetArchiveURL(ctx context.Context, accountID, id uuid.UUID) (string, error)

	// MarkOverdue moves sent invoices past their due date to overdue.
	MarkOverdue(ctx context.Context) (int, error)
}

type DraftPreview struct {
	Totals billing.Totals    `json:"totals"`
	Lines  []LinePreview     `json:"lines"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

type LinePreview struct {
	ID    string `json:"id"`
	Total string `json:"total"`
}

type invoiceService struct {
	invoices  repositories.InvoiceRepository
	customers repositories.CustomerRepository
	archive   InvoiceArchive
	clock     clockwork.Clock
	metrics   metrics.Metrics
	log       zerolog.Logger
}

func NewInvoiceService(invoices repositories.InvoiceRepository, customers repositories.CustomerRepository, archive InvoiceArchive, clock clockwork.Clock, m metrics.Metrics, log zerolog.Logger) InvoiceService {
	return &invoiceService{
		invoices:  invoices,
		customers: customers,
		archive:   archive,
		clock:     clock,
		metrics:   m,
		log:       log.With().Str("component", "invoices").Logger(),
	}
}

func (s *invoiceService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *invoiceService) NewDraft(_ context.Context) *models.InvoiceDraft {
	return billing.NewDraft(s.now())
}

func (s *invoiceService) Preview(_ context.Context, draft *models.InvoiceDraft) *DraftPreview {
	preview := &DraftPreview{
		Totals: billing.ComputeTotals(draft.Items).Rounded(),
		Lines:  make([]LinePreview, 0, len(draft.Items)),
		Valid:  true,
	}
	for _, item := range draft.Items {
		preview.Lines = append(preview.Lines, LinePreview{ID: item.ID, Total: billing.LineTotal(item).StringFixed(2)})
	}
	var verr *models.ValidationError
	if err := billing.ValidateDraft(draft); errors.As(err, &verr) {
		preview.Valid = false
		preview.Errors = verr.Fields
	}
	return preview
}

func (s *invoiceService) Submit(ctx context.Context, accountID uuid.UUID, draft *models.InvoiceDraft) (*models.Invoice, error) {
	if err := billing.ValidateDraft(draft); err != nil {
		return nil, err
	}

	customerID := uuid.MustParse(strings.TrimSpace(draft.CustomerID))
	customer, err := s.customers.GetByID(ctx, accountID, customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewValidationError("customer_id", "customer does not exist")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	now := s.now()
	var inv *models.Invoice
	for attempt := 1; ; attempt++ {
		number, err := s.invoices.NextInvoiceNumber(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		inv, err = billing.Submit(draft, accountID, number, now)
		if err != nil {
			return nil, err
		}
		inv.CustomerName = customer.Name

		err = s.invoices.Create(ctx, inv)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrConcurrentUpdate) || attempt == numberAllocationAttempts {
			return nil, fmt.Errorf("failed to create invoice: %w", err)
		}
		s.log.Debug().Str("number", number).Int("attempt", attempt).Msg("invoice number taken, retrying")
	}

	if key, err := s.archive.Store(ctx, inv); err != nil {
		s.log.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("failed to archive invoice")
	} else if key != "" {
		s.log.Debug().Str("object", key).Msg("invoice archived")
	}

	s.metrics.IncInvoiceCreated()
	s.metrics.ObserveInvoiceTotal(inv.Total.InexactFloat64())
	s.log.Info().
		Str("account_id", accountID.String()).
		Str("invoice", inv.InvoiceNumber).
		Str("total", billing.FormatMoney(inv.Total)).
		Msg("invoice created")
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, accountID, id uuid.UUID) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", id, err)
	}
	if err := billing.VerifyTotals(inv); err != nil {
		s.log.Warn().Err(err).Str("invoice_id", id.String()).Msg("stored invoice totals drifted")
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, accountID uuid.UUID, query directory.InvoiceQuery) ([]*models.Invoice, error) {
	invoices, err := s.invoices.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return directory.FilterInvoices(invoices, query), nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, accountID, id uuid.UUID, status models.InvoiceStatus) (*models.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", id, err)
	}
	from := inv.Status
	if err := billing.TransitionInvoice(inv, status, s.now()); err != nil {
		return nil, err
	}
	if err := s.invoices.UpdateStatus(ctx, inv, from); err != nil {
		return nil, fmt.Errorf("failed to update invoice %s: %w", inv.InvoiceNumber, err)
	}
	return inv, nil
}

func (s *invoiceService) GetSummary(ctx context.Context, accountID uuid.UUID) (*billing.Summary, error) {
	invoices, err := s.invoices.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	summary := billing.Summarize(invoices)
	return &summary, nil
}

func (s *invoiceService) GetArchiveURL(ctx context.Context, accountID, id uuid.UUID) (string, error) {
	inv, err := s.invoices.GetByID(ctx, accountID, id)
	if err != nil {
		return "", fmt.Errorf("invoice %s: %w", id, err)
	}
	return s.archive.GetPresignedURL(ctx, inv, 15*time.Minute)
}

func (s *invoiceService) MarkOverdue(ctx context.Context) (int, error) {
	sent, err := s.invoices.ListByStatus(ctx, models.InvoiceStatusSent)
	if err != nil {
		return 0, fmt.Errorf("failed to list sent invoices: %w", err)
	}

	now := s.now()
	marked := 0
	for _, inv := range sent {
		if !billing.IsOverdue(inv, now) {
			continue
		}
		if err := billing.TransitionInvoice(inv, models.InvoiceStatusOverdue, now); err != nil {
			continue
		}
		if err := s.invoices.UpdateStatus(ctx, inv, models.InvoiceStatusSent); err != nil {
			s.log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("failed to mark invoice overdue")
			continue
		}
		marked++
	}
	s.metrics.IncInvoicesOverdue(marked)
	if marked > 0 {
		s.log.Info().Int("count", marked).Msg("invoices marked overdue")
	}
	return marked, nil
}
