package services

import (
	"context"
	"errors"
	"time"

	"invoicelink/internal/models"
	"invoicelink/internal/repositories"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type AuditLogsService interface {
	// LogTransition records an account action. A nil actor means the system.
	LogTransition(ctx context.Context, recordID uuid.UUID, action string, actor *uuid.UUID, from, to models.SubscriptionStatus, details map[string]string) error

	// GetAccountHistory returns an account's audit trail, oldest first. It
	// still works for rejected (deleted) accounts.
	GetAccountHistory(ctx context.Context, recordID uuid.UUID) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	clock         clockwork.Clock
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository, clock clockwork.Clock) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
		clock:         clock,
	}
}

func (s *auditLogsService) LogTransition(ctx context.Context, recordID uuid.UUID, action string, actor *uuid.UUID, from, to models.SubscriptionStatus, details map[string]string) error {
	if recordID == uuid.Nil {
		return errors.New("record_id is required")
	}
	if action == "" {
		return errors.New("action is required")
	}

	auditLog := &models.AuditLog{
		ID:        uuid.New(),
		RecordID:  recordID,
		Action:    action,
		ActorID:   actor,
		OldStatus: from,
		NewStatus: to,
		Details:   details,
		CreatedAt: s.clock.Now().UTC().Truncate(time.Microsecond),
	}
	return s.auditLogsRepo.Create(ctx, auditLog)
}

func (s *auditLogsService) GetAccountHistory(ctx context.Context, recordID uuid.UUID) ([]*models.AuditLog, error) {
	return s.auditLogsRepo.ListByRecord(ctx, recordID)
}
