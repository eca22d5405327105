package repositories

import (
	"context"
	"sort"
	"sync"

	"invoicelink/internal/models"

	"github.com/google/uuid"
)

// The in-memory repositories back the service when no DATABASE_URL is set
// and in tests. Records are copied on the way in and out.

type memoryAccountRepo struct {
	mu    sync.RWMutex
	order []uuid.UUID
	byID  map[uuid.UUID]*models.Account
}

func NewMemoryAccountRepo(seed ...*models.Account) AccountRepository {
	r := &memoryAccountRepo{byID: make(map[uuid.UUID]*models.Account)}
	for _, acc := range seed {
		r.order = append(r.order, acc.ID)
		r.byID[acc.ID] = acc.Clone()
	}
	return r
}

func (r *memoryAccountRepo) Create(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := models.NormalizeEmail(acc.Email)
	for _, existing := range r.byID {
		if models.NormalizeEmail(existing.Email) == email {
			return models.ErrDuplicateEmail
		}
	}
	cp := acc.Clone()
	cp.Email = email
	r.order = append(r.order, cp.ID)
	r.byID[cp.ID] = cp
	return nil
}

func (r *memoryAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return acc.Clone(), nil
}

func (r *memoryAccountRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, acc := range r.byID {
		if models.NormalizeEmail(acc.Email) == email {
			return acc.Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryAccountRepo) FindByBusiness(_ context.Context, key models.BusinessKey) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if acc := r.byID[id]; acc.BusinessKey() == key {
			return acc.Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryAccountRepo) Update(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[acc.ID]
	if !ok || stored.Version != acc.Version {
		return models.ErrConcurrentUpdate
	}
	cp := acc.Clone()
	cp.Email = stored.Email
	cp.PasswordHash = stored.PasswordHash
	cp.CreatedAt = stored.CreatedAt
	cp.Version++
	r.byID[acc.ID] = cp
	acc.Version = cp.Version
	return nil
}

func (r *memoryAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryAccountRepo) List(_ context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}

type memoryCustomerRepo struct {
	mu        sync.RWMutex
	customers []*models.Customer
}

func NewMemoryCustomerRepo(seed ...*models.Customer) CustomerRepository {
	r := &memoryCustomerRepo{}
	for _, c := range seed {
		cp := *c
		r.customers = append(r.customers, &cp)
	}
	return r
}

func (r *memoryCustomerRepo) Create(_ context.Context, c *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *c
	r.customers = append(r.customers, &cp)
	return nil
}

func (r *memoryCustomerRepo) GetByID(_ context.Context, accountID, id uuid.UUID) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.customers {
		if c.ID == id && c.AccountID == accountID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memoryCustomerRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Customer{}
	for _, c := range r.customers {
		if c.AccountID == accountID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memoryInvoiceRepo struct {
	mu       sync.RWMutex
	invoices []*models.Invoice
}

func NewMemoryInvoiceRepo() InvoiceRepository {
	return &memoryInvoiceRepo{}
}

func copyInvoice(inv *models.Invoice) *models.Invoice {
	cp := *inv
	cp.Items = append([]models.LineItem(nil), inv.Items...)
	return &cp
}

func (r *memoryInvoiceRepo) Create(_ context.Context, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.invoices {
		if existing.AccountID == inv.AccountID && existing.InvoiceNumber == inv.InvoiceNumber {
			return models.ErrConcurrentUpdate
		}
	}
	r.invoices = append(r.invoices, copyInvoice(inv))
	return nil
}

func (r *memoryInvoiceRepo) GetByID(_ context.Context, accountID, id uuid.UUID) (*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.invoices {
		if inv.ID == id && inv.AccountID == accountID {
			return copyInvoice(inv), nil
		}
	}
	return nil, models.ErrNotFound
}

// ListByAccount returns newest first.
func (r *memoryInvoiceRepo) ListByAccount(_ context.Context, accountID uuid.UUID) ([]*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Invoice{}
	for i := len(r.invoices) - 1; i >= 0; i-- {
		if inv := r.invoices[i]; inv.AccountID == accountID {
			out = append(out, copyInvoice(inv))
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) ListByStatus(_ context.Context, status models.InvoiceStatus) ([]*models.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Invoice{}
	for _, inv := range r.invoices {
		if inv.Status == status {
			out = append(out, copyInvoice(inv))
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) UpdateStatus(_ context.Context, inv *models.Invoice, from models.InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.invoices {
		if stored.ID != inv.ID {
			continue
		}
		if stored.Status != from {
			return models.ErrConcurrentUpdate
		}
		stored.Status = inv.Status
		stored.UpdatedAt = inv.UpdatedAt
		return nil
	}
	return models.ErrConcurrentUpdate
}

func (r *memoryInvoiceRepo) NextInvoiceNumber(_ context.Context, accountID uuid.UUID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, inv := range r.invoices {
		if inv.AccountID == accountID {
			count++
		}
	}
	return FormatInvoiceNumber(count + 1), nil
}

type memoryAuditLogsRepo struct {
	mu   sync.RWMutex
	logs []*models.AuditLog
}

func NewMemoryAuditLogsRepo() AuditLogsRepository {
	return &memoryAuditLogsRepo{}
}

func (r *memoryAuditLogsRepo) Create(_ context.Context, auditLog *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	cp := *auditLog
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *memoryAuditLogsRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*models.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.AuditLog{}
	for _, l := range r.logs {
		if l.RecordID == recordID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}
