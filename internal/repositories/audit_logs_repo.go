package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"invoicelink/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	// Create a new audit log entry
	Create(ctx context.Context, auditLog *models.AuditLog) error

	// Get audit logs for one account, oldest first
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}

	// Marshal JSONB fields
	var details []byte
	if auditLog.Details != nil {
		var err error
		details, err = json.Marshal(auditLog.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, record_id, action, actor_id, old_status, new_status, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		auditLog.ID, auditLog.RecordID, auditLog.Action, auditLog.ActorID,
		auditLog.OldStatus, auditLog.NewStatus, details, auditLog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditLogsRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*models.AuditLog, error) {
	query := `
		SELECT id, record_id, action, actor_id, old_status, new_status, details, created_at
		FROM audit_logs
		WHERE record_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		log := &models.AuditLog{}
		var details []byte
		if err := rows.Scan(&log.ID, &log.RecordID, &log.Action, &log.ActorID, &log.OldStatus, &log.NewStatus, &details, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &log.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal details: %w", err)
			}
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
