// Package mongo provides a MongoDB audit trail store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// AuditCollectionName is the name of the audit collection in MongoDB
	AuditCollectionName = "audit_logs"
)

// collection is the subset of *mongo.Collection the audit store uses.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// auditDocument is the stored form of an audit record. The audit id is the document
// id, so a second insert of the same record fails.
type auditDocument struct {
	AuditID          string            `bson:"_id"`
	EntityType       string            `bson:"entity_type"`
	EntityID         string            `bson:"entity_id"`
	EntityIdentifier string            `bson:"entity_identifier"`
	Action           string            `bson:"action"`
	Description      string            `bson:"description,omitempty"`
	OldValues        map[string]string `bson:"old_values,omitempty"`
	NewValues        map[string]string `bson:"new_values,omitempty"`
	ChangedFields    []string          `bson:"changed_fields,omitempty"`
	OriginalAuditID  *string           `bson:"original_audit_id,omitempty"`
	ReversalReason   *string           `bson:"reversal_reason,omitempty"`
	Metadata         map[string]string `bson:"metadata"`
	PerformedBy      string            `bson:"performed_by"`
	CreatedAt        time.Time         `bson:"created_at"`
}

func toDocument(r domain.AuditLogRecord) auditDocument {
	return auditDocument{
		AuditID:          r.AuditID,
		EntityType:       r.EntityType,
		EntityID:         r.EntityID,
		EntityIdentifier: r.EntityIdentifier,
		Action:           string(r.Action),
		Description:      r.Description,
		OldValues:        r.OldValues,
		NewValues:        r.NewValues,
		ChangedFields:    r.ChangedFields,
		OriginalAuditID:  r.OriginalAuditID,
		ReversalReason:   r.ReversalReason,
		Metadata:         r.Metadata,
		PerformedBy:      r.PerformedBy,
		CreatedAt:        r.CreatedAt,
	}
}

func (d auditDocument) toRecord() domain.AuditLogRecord {
	return domain.AuditLogRecord{
		AuditID:          d.AuditID,
		EntityType:       d.EntityType,
		EntityID:         d.EntityID,
		EntityIdentifier: d.EntityIdentifier,
		Action:           domain.AuditAction(d.Action),
		Description:      d.Description,
		OldValues:        d.OldValues,
		NewValues:        d.NewValues,
		ChangedFields:    d.ChangedFields,
		OriginalAuditID:  d.OriginalAuditID,
		ReversalReason:   d.ReversalReason,
		Metadata:         d.Metadata,
		PerformedBy:      d.PerformedBy,
		CreatedAt:        d.CreatedAt,
	}
}

// AuditRepository implements the append-only audit store on MongoDB. It only
// ever inserts.
type AuditRepository struct {
	coll   collection
	logger *slog.Logger
}

var _ portsrepo.AuditLogRepository = (*AuditRepository)(nil)

// NewAuditRepository creates a MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		coll:   db.Collection(AuditCollectionName),
		logger: logger,
	}
}

// EnsureIndexes creates the entity history index used by lookups.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(AuditCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "entity_type", Value: 1},
			{Key: "entity_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}
	return nil
}

func (r *AuditRepository) ConnectionName() string { return "mongo" }

func (r *AuditRepository) InsertAuditLog(ctx context.Context, record domain.AuditLogRecord) error {
	if _, err := r.coll.InsertOne(ctx, toDocument(record)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("audit record %s: %w", record.AuditID, apperrors.ErrDuplicate)
		}
		r.logger.Error("Failed to insert audit record",
			"audit_id", record.AuditID,
			"error", err)
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// FindAuditLogs returns matching records sorted by creation time, newest first.
func (r *AuditRepository) FindAuditLogs(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogRecord, error) {
	query := bson.M{}
	if filter.EntityType != "" {
		query["entity_type"] = filter.EntityType
	}
	if filter.EntityID != "" {
		query["entity_id"] = filter.EntityID
	}
	if filter.Action != "" {
		query["action"] = string(filter.Action)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error("Failed to query audit records",
			"entity_type", filter.EntityType,
			"error", err)
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	records := make([]domain.AuditLogRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.toRecord())
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
