package repositories

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// AuditLogRepository is an append-only audit store. Records are never updated or deleted.
type AuditLogRepository interface {
	InsertAuditLog(ctx context.Context, record domain.AuditLogRecord) error

	// FindAuditLogs returns matching records, newest first.
	FindAuditLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogRecord, error)

	// FindLatestAuditLog returns the newest record for the entity and action,
	// or apperrors.ErrNotFound.
	FindLatestAuditLog(ctx context.Context, ref domain.EntityRef, action domain.AuditAction) (*domain.AuditLogRecord, error)

	// ConnectionName names the store, recorded in audit metadata.
	ConnectionName() string
}
