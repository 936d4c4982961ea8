package domain

import "time"

// AuditAction is what happened to an audited entity.
type AuditAction string

const (
	ActionCreated  AuditAction = "created"
	ActionUpdated  AuditAction = "updated"
	ActionDeleted  AuditAction = "deleted"
	ActionRestored AuditAction = "restored"
	ActionApproved AuditAction = "approved"
	ActionRejected AuditAction = "rejected"
	ActionReversed AuditAction = "reversed"
	ActionAccessed AuditAction = "accessed"
)

// IsValid reports whether a is a known audit action.
func (a AuditAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionRestored,
		ActionApproved, ActionRejected, ActionReversed, ActionAccessed:
		return true
	}
	return false
}

// EntityRef identifies an audited entity without a polymorphic foreign key.
type EntityRef struct {
	Type  string `json:"entityType"`
	ID    string `json:"entityID"`
	Table string `json:"table"`
}

// Auditable is implemented by every entity the audit logger can record.
// AuditAttributes returns the stringified field values used for snapshots,
// diffs and identifier lookup.
type Auditable interface {
	AuditRef() EntityRef
	AuditAttributes() map[string]string
}

// AuditLogRecord is a write-once audit trail record.
type AuditLogRecord struct {
	AuditID          string            `json:"auditID"`
	EntityType       string            `json:"entityType"`
	EntityID         string            `json:"entityID"`
	EntityIdentifier string            `json:"entityIdentifier"`
	Action           AuditAction       `json:"action"`
	Description      string            `json:"description,omitempty"`
	OldValues        map[string]string `json:"oldValues,omitempty"`
	NewValues        map[string]string `json:"newValues,omitempty"`
	ChangedFields    []string          `json:"changedFields,omitempty"`
	OriginalAuditID  *string           `json:"originalAuditID,omitempty"`
	ReversalReason   *string           `json:"reversalReason,omitempty"`
	Metadata         map[string]string `json:"metadata"`
	PerformedBy      string            `json:"performedBy"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AuditLogFilter selects audit history.
type AuditLogFilter struct {
	EntityType string
	EntityID   string
	Action     AuditAction
	Limit      int
}
