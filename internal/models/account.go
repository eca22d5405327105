package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	StatusPending  SubscriptionStatus = "pending"
	StatusTrial    SubscriptionStatus = "trial"
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusTrial, StatusActive, StatusCanceled:
		return true
	}
	return false
}

// DefaultSubscriptionAmount is the monthly amount given to every new registration.
var DefaultSubscriptionAmount = decimal.RequireFromString("9.99")

// Account is a registered business user.
type Account struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	Email              string             `json:"email" db:"email"`
	PasswordHash       string             `json:"-" db:"password_hash"` // Never serialize in JSON
	FullName           string             `json:"full_name" db:"full_name"`
	BusinessName       string             `json:"business_name" db:"business_name"`
	Address            string             `json:"address" db:"address"`
	City               string             `json:"city" db:"city"`
	Postcode           string             `json:"postcode" db:"postcode"`
	Phone              string             `json:"phone" db:"phone"`
	IsApproved         bool               `json:"is_approved" db:"is_approved"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at" db:"trial_ends_at"`
	SubscriptionAmount decimal.Decimal    `json:"subscription_amount" db:"subscription_amount"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	Version            int                `json:"version" db:"version"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.TrialEndsAt != nil {
		t := *a.TrialEndsAt
		cp.TrialEndsAt = &t
	}
	return &cp
}

func (a *Account) SearchFields() []string {
	return []string{a.FullName, a.BusinessName, a.Email}
}

// BusinessKey is the normalised (name, address, postcode) triple used for
// duplicate business detection.
type BusinessKey struct {
	Name     string
	Address  string
	Postcode string
}

func NewBusinessKey(name, address, postcode string) BusinessKey {
	return BusinessKey{
		Name:     normalize(name),
		Address:  normalize(address),
		Postcode: normalize(postcode),
	}
}

func (a *Account) BusinessKey() BusinessKey {
	return NewBusinessKey(a.BusinessName, a.Address, a.Postcode)
}

// NormalizeEmail lowercases and trims an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return normalize(email)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
