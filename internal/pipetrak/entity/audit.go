package entity

import "time"

// AuditLog is an immutable record of one field-level mutation. Changes
// holds a per-field {old, new} map and is the only source of truth for
// undo. Entries written by a bulk operation carry the operation's
// TransactionID so a rollback replays by key, not by time window.
type AuditLog struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID     string    `json:"project_id" gorm:"size:32;not null;index"`
	EntityType    string    `json:"entity_type" gorm:"size:50;not null;index:idx_audit_entity"`
	EntityID      string    `json:"entity_id" gorm:"size:32;not null;index:idx_audit_entity"`
	UserID        string    `json:"user_id" gorm:"size:32;not null"`
	Action        string    `json:"action" gorm:"size:50;not null"`
	Changes       JSONB     `json:"changes" gorm:"type:jsonb"`
	TransactionID *string   `json:"transaction_id" gorm:"size:36;index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BulkTransaction names a group of milestone updates submitted and
// undoable together.
type BulkTransaction struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	ProjectID    string     `json:"project_id" gorm:"size:32;not null;index"`
	UserID       string     `json:"user_id" gorm:"size:32;not null"`
	SuccessCount int        `json:"success_count" gorm:"not null;default:0"`
	FailureCount int        `json:"failure_count" gorm:"not null;default:0"`
	Status       string     `json:"status" gorm:"size:20;not null;default:completed"`
	CreatedAt    time.Time  `json:"created_at"`
	RolledBackAt *time.Time `json:"rolled_back_at"`
}

func (BulkTransaction) TableName() string {
	return "bulk_transactions"
}

// Audit actions
const (
	AuditActionUpdate           = "MILESTONE_UPDATE"
	AuditActionBulkUpdate       = "MILESTONE_BULK_UPDATE"
	AuditActionConflictResolved = "CONFLICT_RESOLVED"
	AuditActionUndo             = "MILESTONE_UNDO"
)

// Audit entity types
const (
	AuditEntityComponentMilestone = "component_milestone"
	AuditEntityComponent          = "component"
	AuditEntityFieldWeld          = "field_weld"
)

// Bulk transaction statuses
const (
	TransactionStatusCompleted  = "completed"
	TransactionStatusRolledBack = "rolled_back"
)
