package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// AuditEvent describes one mutation to record. Previous, when set, turns the record into
// a diff of changed fields. It is ignored for created, and for deleted it only stands in
// for an entity without attributes.
type AuditEvent struct {
	Action          domain.AuditAction
	Entity          domain.Auditable
	Previous        domain.Auditable
	Description     string
	PerformedBy     string
	OriginalAuditID *string
	ReversalReason  *string
	Metadata        map[string]string
}

// AuditSvcFacade records and reads the audit trail.
type AuditSvcFacade interface {
	// Log stores the record for ev and returns it.
	Log(ctx context.Context, ev AuditEvent) (*domain.AuditLogRecord, error)

	// LogAsync stores the record in the background; failures are only logged.
	LogAsync(ctx context.Context, ev AuditEvent)

	// ListAuditLogs returns matching history, newest first.
	ListAuditLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogRecord, error)

	// FindLatest returns the newest record for ref and action, or apperrors.ErrNotFound.
	FindLatest(ctx context.Context, ref domain.EntityRef, action domain.AuditAction) (*domain.AuditLogRecord, error)
}

// LedgerEventPublisher announces committed ledger changes to other systems.
type LedgerEventPublisher interface {
	PublishJournalEvent(ctx context.Context, eventType string, entry domain.JournalEntry) error
}
