package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one lifecycle action taken against an account. Rejected
// accounts are deleted, so their audit entries are the only trace left.
type AuditLog struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	RecordID  uuid.UUID          `json:"record_id" db:"record_id"`
	Action    string             `json:"action" db:"action"`
	ActorID   *uuid.UUID         `json:"actor_id" db:"actor_id"`
	OldStatus SubscriptionStatus `json:"old_status" db:"old_status"`
	NewStatus SubscriptionStatus `json:"new_status" db:"new_status"`
	Details   map[string]string  `json:"details" db:"details"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

// Action constants for audit logs
const (
	ActionRegister     = "REGISTER"
	ActionApprove      = "APPROVE"
	ActionReject       = "REJECT"
	ActionActivate     = "ACTIVATE"
	ActionCancel       = "CANCEL"
	ActionAmountChange = "AMOUNT_CHANGE"
	ActionTrialExpired = "TRIAL_EXPIRED"
)
