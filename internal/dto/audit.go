package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// CreateAuditLogRequest lets collaborating subsystems record an entity mutation.
// OldValues is only meaningful for the updated action.
type CreateAuditLogRequest struct {
	EntityType  string             `json:"entity_type" binding:"required,max=64"`
	EntityID    string             `json:"entity_id" binding:"required,max=64"`
	Table       string             `json:"table" binding:"max=64"`
	Action      domain.AuditAction `json:"action" binding:"required,oneof=created updated deleted restored approved rejected reversed accessed"`
	Description string             `json:"description" binding:"max=500"`
	OldValues   map[string]string  `json:"old_values"`
	NewValues   map[string]string  `json:"new_values"`
	Metadata    map[string]string  `json:"metadata"`
}

// ListAuditLogsParams are the query parameters of an audit history lookup.
type ListAuditLogsParams struct {
	EntityType string             `form:"entity_type" binding:"required"`
	EntityID   string             `form:"entity_id"`
	Action     domain.AuditAction `form:"action"`
	Limit      int                `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ExternalEntity adapts a collaborator-supplied snapshot to domain.Auditable.
type ExternalEntity struct {
	Ref        domain.EntityRef
	Attributes map[string]string
}

// AuditRef implements domain.Auditable.
func (e ExternalEntity) AuditRef() domain.EntityRef { return e.Ref }

// AuditAttributes implements domain.Auditable.
func (e ExternalEntity) AuditAttributes() map[string]string { return e.Attributes }

// Entities returns the previous and current snapshots described by the request.
// previous is nil unless old values were supplied.
func (r CreateAuditLogRequest) Entities() (previous domain.Auditable, current domain.Auditable) {
	table := r.Table
	if table == "" {
		table = r.EntityType
	}
	ref := domain.EntityRef{Type: r.EntityType, ID: r.EntityID, Table: table}
	current = ExternalEntity{Ref: ref, Attributes: r.NewValues}
	if r.OldValues != nil {
		previous = ExternalEntity{Ref: ref, Attributes: r.OldValues}
	}
	return previous, current
}

// AuditLogResponse defines the data returned for an audit record.
type AuditLogResponse struct {
	AuditID          string             `json:"id"`
	EntityType       string             `json:"entity_type"`
	EntityID         string             `json:"entity_id"`
	EntityIdentifier string             `json:"entity_identifier"`
	Action           domain.AuditAction `json:"action"`
	Description      string             `json:"description,omitempty"`
	OldValues        map[string]string  `json:"old_values,omitempty"`
	NewValues        map[string]string  `json:"new_values,omitempty"`
	ChangedFields    []string           `json:"changed_fields,omitempty"`
	OriginalAuditID  *string            `json:"original_audit_id,omitempty"`
	ReversalReason   *string            `json:"reversal_reason,omitempty"`
	Metadata         map[string]string  `json:"metadata"`
	PerformedBy      string             `json:"performed_by"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ToAuditLogResponse converts a domain.AuditLogRecord.
func ToAuditLogResponse(r *domain.AuditLogRecord) AuditLogResponse {
	return AuditLogResponse{
		AuditID:          r.AuditID,
		EntityType:       r.EntityType,
		EntityID:         r.EntityID,
		EntityIdentifier: r.EntityIdentifier,
		Action:           r.Action,
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

// ListAuditLogsResponse wraps audit history.
type ListAuditLogsResponse struct {
	Records []AuditLogResponse `json:"records"`
}

// ToListAuditLogsResponse converts a slice of audit records.
func ToListAuditLogsResponse(records []domain.AuditLogRecord) ListAuditLogsResponse {
	list := make([]AuditLogResponse, len(records))
	for i := range records {
		list[i] = ToAuditLogResponse(&records[i])
	}
	return ListAuditLogsResponse{Records: list}
}
