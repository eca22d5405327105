package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoicelink/internal/models"
	"invoicelink/internal/repositories"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, accountID uuid.UUID, req *CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, accountID, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, accountID uuid.UUID) ([]*models.Customer, error)
}

type CreateCustomerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Notes    string `json:"notes"`
}

type customerService struct {
	customers repositories.CustomerRepository
	clock     clockwork.Clock
}

func NewCustomerService(customers repositories.CustomerRepository, clock clockwork.Clock) CustomerService {
	return &customerService{customers: customers, clock: clock}
}

func (s *customerService) CreateCustomer(ctx context.Context, accountID uuid.UUID, req *CreateCustomerRequest) (*models.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	c := &models.Customer{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		City:      strings.TrimSpace(req.City),
		Postcode:  strings.TrimSpace(req.Postcode),
		Notes:     req.Notes,
		CreatedAt: s.clock.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, accountID, id uuid.UUID) (*models.Customer, error) {
	c, err := s.customers.GetByID(ctx, accountID, id)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", id, err)
	}
	return c, nil
}

func (s *customerService) ListCustomers(ctx context.Context, accountID uuid.UUID) ([]*models.Customer, error) {
	return s.customers.ListByAccount(ctx, accountID)
}
