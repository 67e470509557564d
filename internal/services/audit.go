package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

// AuditQuerier defines the database operations for the audit trail
type AuditQuerier interface {
	CreateAuditLog(ctx context.Context, arg queries.CreateAuditLogParams) (queries.AuditLog, error)
	ListAuditLogs(ctx context.Context, arg queries.ListAuditLogsParams) ([]queries.AuditLog, error)
}

// AuditService writes and reads audit_logs.
type AuditService struct {
	queries AuditQuerier
}

func NewAuditService(q AuditQuerier) *AuditService {
	return &AuditService{queries: q}
}

// Record appends an entry. actorID 0 is stored as NULL, meaning the system.
func (s *AuditService) Record(ctx context.Context, actorID int32, eventType, description string) error {
	_, err := s.queries.CreateAuditLog(ctx, queries.CreateAuditLogParams{
		ActorID:     pgtype.Int4{Int32: actorID, Valid: actorID != 0},
		EventType:   eventType,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first, optionally for one event type.
func (s *AuditService) List(ctx context.Context, eventType string, page, limit int) ([]models.AuditEntry, error) {
	page, limit = pageBounds(page, limit)
	rows, err := s.queries.ListAuditLogs(ctx, queries.ListAuditLogsParams{
		EventType: textOrNull(eventType),
		Limit:     int32(limit),
		Offset:    int32((page - 1) * limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	entries := make([]models.AuditEntry, 0, len(rows))
	for _, r := range rows {
		entry := models.AuditEntry{
			ID:          r.ID,
			EventType:   r.EventType,
			Description: r.Description,
			CreatedAt:   tsTime(r.CreatedAt),
		}
		if r.ActorID.Valid {
			id := r.ActorID.Int32
			entry.ActorID = &id
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
