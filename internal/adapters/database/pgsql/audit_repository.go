package pgsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

const auditColumns = `audit_id, entity_type, entity_id, entity_identifier, action, description,
		old_values, new_values, changed_fields, original_audit_id, reversal_reason, metadata,
		performed_by, created_at`

// AuditRepository stores audit records in the append-only audit_logs table.
type AuditRepository struct {
	BaseRepository
}

// NewAuditRepository creates an audit store over db.
func NewAuditRepository(db Querier) *AuditRepository {
	return &AuditRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.AuditLogRepository = (*AuditRepository)(nil)

func (r *AuditRepository) ConnectionName() string { return "pgsql" }

func (r *AuditRepository) InsertAuditLog(ctx context.Context, record domain.AuditLogRecord) error {
	oldValues, err := marshalValues(record.OldValues)
	if err != nil {
		return err
	}
	newValues, err := marshalValues(record.NewValues)
	if err != nil {
		return err
	}
	metadata, err := marshalValues(record.Metadata)
	if err != nil {
		return err
	}
	changed := record.ChangedFields
	if changed == nil {
		changed = []string{}
	}

	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = r.db.Exec(ctx, query,
		record.AuditID,
		record.EntityType,
		record.EntityID,
		record.EntityIdentifier,
		string(record.Action),
		record.Description,
		oldValues,
		newValues,
		changed,
		record.OriginalAuditID,
		record.ReversalReason,
		metadata,
		record.PerformedBy,
		record.CreatedAt,
	)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return fmt.Errorf("audit record %s: %w", record.AuditID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert audit record %s: %w", record.AuditID, err)
	}
	return nil
}

func (r *AuditRepository) FindAuditLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogRecord, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = "+arg(filter.EntityType))
	}
	if filter.EntityID != "" {
		conds = append(conds, "entity_id = "+arg(filter.EntityID))
	}
	if filter.Action != "" {
		conds = append(conds, "action = "+arg(string(filter.Action)))
	}

	query := "SELECT " + auditColumns + " FROM audit_logs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditLogRecord{}
	for rows.Next() {
		rec, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}
	return records, nil
}

func (r *AuditRepository) FindLatestAuditLog(ctx context.Context, ref domain.EntityRef, action domain.AuditAction) (*domain.AuditLogRecord, error) {
	records, err := r.FindAuditLogs(ctx, domain.AuditLogFilter{EntityType: ref.Type, EntityID: ref.ID, Action: action, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s audit record for %s %s", action, ref.Type, ref.ID))
	}
	return &records[0], nil
}

func scanAuditRecord(row pgx.Row) (domain.AuditLogRecord, error) {
	var rec domain.AuditLogRecord
	var action string
	var oldValues, newValues, metadata []byte
	var originalAuditID, reversalReason sql.NullString
	err := row.Scan(
		&rec.AuditID,
		&rec.EntityType,
		&rec.EntityID,
		&rec.EntityIdentifier,
		&action,
		&rec.Description,
		&oldValues,
		&newValues,
		&rec.ChangedFields,
		&originalAuditID,
		&reversalReason,
		&metadata,
		&rec.PerformedBy,
		&rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan audit log row: %w", err)
	}
	rec.Action = domain.AuditAction(action)
	if originalAuditID.Valid {
		rec.OriginalAuditID = &originalAuditID.String
	}
	if reversalReason.Valid {
		rec.ReversalReason = &reversalReason.String
	}
	for _, col := range []struct {
		raw []byte
		dst *map[string]string
	}{{oldValues, &rec.OldValues}, {newValues, &rec.NewValues}, {metadata, &rec.Metadata}} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return rec, fmt.Errorf("failed to decode audit record %s: %w", rec.AuditID, err)
		}
	}
	if len(rec.ChangedFields) == 0 {
		rec.ChangedFields = nil
	}
	return rec, nil
}

// marshalValues encodes a value map for a jsonb column. Nil maps are stored as NULL.
func marshalValues(values map[string]string) ([]byte, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit values: %w", err)
	}
	return raw, nil
}
