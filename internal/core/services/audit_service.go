package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
)

const (
	defaultAuditListLimit = 50
	maxAuditListLimit     = 500
	systemActor           = "system"
)

// AuditService writes the append-only audit trail. Asynchronous writes run on a
// bounded worker pool.
type AuditService struct {
	BaseService
	repo     portsrepo.AuditLogRepository
	pool     *ants.Pool
	inflight sync.WaitGroup
}

// AuditServiceOption is a functional option for configuring the audit service
type AuditServiceOption func(*AuditService)

// WithAuditClock replaces the clock used for record timestamps.
func WithAuditClock(now func() time.Time) AuditServiceOption {
	return func(s *AuditService) {
		s.now = now
	}
}

// NewAuditService creates an audit service with a pool of workers for LogAsync.
func NewAuditService(repo portsrepo.AuditLogRepository, workers int, options ...AuditServiceOption) (*AuditService, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit worker pool: %w", err)
	}
	svc := &AuditService{repo: repo, pool: pool}
	for _, option := range options {
		option(svc)
	}
	return svc, nil
}

var _ portssvc.AuditSvcFacade = (*AuditService)(nil)

// Log implements portssvc.AuditSvcFacade
func (s *AuditService) Log(ctx context.Context, ev portssvc.AuditEvent) (*domain.AuditLogRecord, error) {
	record, err := s.buildRecord(ev)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertAuditLog(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store audit record: %w", err)
	}
	return &record, nil
}

// LogAsync implements portssvc.AuditSvcFacade. The record is built right away so
// later changes to the entity cannot leak into it.
func (s *AuditService) LogAsync(ctx context.Context, ev portssvc.AuditEvent) {
	record, err := s.buildRecord(ev)
	if err != nil {
		s.LogError(ctx, err, "Dropping invalid audit event", slog.String("action", string(ev.Action)))
		return
	}

	bg := context.WithoutCancel(ctx)
	write := func() {
		defer s.inflight.Done()
		if err := s.repo.InsertAuditLog(bg, record); err != nil {
			s.LogError(bg, err, "Failed to store audit record",
				slog.String("audit_id", record.AuditID),
				slog.String("entity_type", record.EntityType),
				slog.String("entity_id", record.EntityID))
		}
	}

	s.inflight.Add(1)
	if err := s.pool.Submit(write); err != nil {
		s.LogWarn(ctx, "Audit worker pool unavailable, writing inline", slog.String("error", err.Error()))
		write()
	}
}

// ListAuditLogs implements portssvc.AuditSvcFacade
func (s *AuditService) ListAuditLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogRecord, error) {
	if filter.EntityType == "" {
		return nil, fmt.Errorf("%w: entity_type is required", apperrors.ErrValidation)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditListLimit
	}
	if filter.Limit > maxAuditListLimit {
		filter.Limit = maxAuditListLimit
	}
	return s.repo.FindAuditLogs(ctx, filter)
}

// FindLatest implements portssvc.AuditSvcFacade
func (s *AuditService) FindLatest(ctx context.Context, ref domain.EntityRef, action domain.AuditAction) (*domain.AuditLogRecord, error) {
	return s.repo.FindLatestAuditLog(ctx, ref, action)
}

// Shutdown waits for queued asynchronous writes and releases the pool.
func (s *AuditService) Shutdown() {
	s.LogInfo(context.Background(), "Shutting down audit worker pool", slog.Int("running_workers", s.pool.Running()))
	s.inflight.Wait()
	s.pool.Release()
}

func (s *AuditService) buildRecord(ev portssvc.AuditEvent) (domain.AuditLogRecord, error) {
	if !ev.Action.IsValid() {
		return domain.AuditLogRecord{}, fmt.Errorf("%w: unknown audit action %q", apperrors.ErrValidation, ev.Action)
	}
	if ev.Entity == nil {
		return domain.AuditLogRecord{}, fmt.Errorf("%w: audit event has no entity", apperrors.ErrValidation)
	}
	ref := ev.Entity.AuditRef()
	if ref.Type == "" || ref.ID == "" {
		return domain.AuditLogRecord{}, fmt.Errorf("%w: audited entity needs a type and an id", apperrors.ErrValidation)
	}

	attrs := ev.Entity.AuditAttributes()
	record := domain.AuditLogRecord{
		AuditID:          uuid.NewString(),
		EntityType:       ref.Type,
		EntityID:         ref.ID,
		EntityIdentifier: resolveIdentifier(ref.ID, attrs),
		Action:           ev.Action,
		Description:      ev.Description,
		OriginalAuditID:  ev.OriginalAuditID,
		ReversalReason:   ev.ReversalReason,
		PerformedBy:      ev.PerformedBy,
		CreatedAt:        s.Now(),
	}
	if record.PerformedBy == "" {
		record.PerformedBy = systemActor
	}

	switch {
	case ev.Action == domain.ActionDeleted:
		if len(attrs) == 0 && ev.Previous != nil {
			attrs = ev.Previous.AuditAttributes()
		}
		record.OldValues = copyAttrs(attrs)
	case ev.Action == domain.ActionCreated:
		record.NewValues = copyAttrs(attrs)
	case ev.Action == domain.ActionUpdated || ev.Previous != nil:
		var old map[string]string
		if ev.Previous != nil {
			old = ev.Previous.AuditAttributes()
		}
		changed := changedFields(old, attrs)
		record.ChangedFields = changed
		record.OldValues = pick(old, changed)
		record.NewValues = pick(attrs, changed)
	default:
		record.NewValues = copyAttrs(attrs)
	}

	record.Metadata = copyAttrs(ev.Metadata)
	table := ref.Table
	if table == "" {
		table = ref.Type
	}
	record.Metadata["table"] = table
	record.Metadata["connection"] = s.repo.ConnectionName()
	return record, nil
}
