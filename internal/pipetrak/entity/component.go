package entity

import "time"

// Component is a trackable physical item: a spool, valve, support,
// field weld, instrument and so on. CompletionPercent and Status are
// always derived from the milestone set, never written by clients.
type Component struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	ProjectID         string     `json:"project_id" gorm:"size:32;not null;index"`
	DrawingID         *string    `json:"drawing_id" gorm:"size:32;index"`
	ComponentID       string     `json:"component_id" gorm:"size:100;not null;index"` // tag from the drawing, e.g. VLV-1203
	Type              string     `json:"type" gorm:"size:32;not null"`
	Description       string     `json:"description" gorm:"type:text"`
	WorkflowType      string     `json:"workflow_type" gorm:"size:32;not null;default:MILESTONE_DISCRETE"`
	TemplateID        string     `json:"template_id" gorm:"size:32;not null"`
	CompletionPercent float64    `json:"completion_percent" gorm:"type:decimal(5,2);not null;default:0"`
	Status            string     `json:"status" gorm:"size:16;not null;default:NOT_STARTED"`
	WeldID            *string    `json:"weld_id" gorm:"size:50"` // links to a FieldWeld record for weld components
	CreatedBy         string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at" gorm:"index"`

	// Associations
	Drawing    *Drawing             `json:"drawing,omitempty" gorm:"foreignKey:DrawingID"`
	Template   *MilestoneTemplate   `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Milestones []ComponentMilestone `json:"milestones,omitempty" gorm:"foreignKey:ComponentID"`
}

func (Component) TableName() string {
	return "components"
}

// ComponentMilestone is one instance of a template milestone attached
// to a component. Exactly one value representation is meaningful for a
// given workflow type; IsCompleted is derived from it. CompletedAt and
// CompletedBy are set together and cleared together.
type ComponentMilestone struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	ComponentID     string     `json:"component_id" gorm:"size:32;not null;index:idx_component_milestones_component_name"`
	Name            string     `json:"name" gorm:"size:100;not null;index:idx_component_milestones_component_name"`
	SortOrder       int        `json:"sort_order" gorm:"not null;default:0"`
	Weight          float64    `json:"weight" gorm:"type:decimal(6,2);not null;default:1"`
	IsCompleted     bool       `json:"is_completed" gorm:"not null;default:false"`
	PercentageValue *float64   `json:"percentage_value" gorm:"type:decimal(5,2)"`
	QuantityValue   *float64   `json:"quantity_value" gorm:"type:decimal(12,2)"`
	QuantityTarget  *float64   `json:"quantity_target" gorm:"type:decimal(12,2)"`
	EffectiveDate   *time.Time `json:"effective_date" gorm:"type:date"`
	CompletedAt     *time.Time `json:"completed_at"`
	CompletedBy     *string    `json:"completed_by" gorm:"size:32"`
	WelderID        *string    `json:"welder_id" gorm:"size:32"`
	Comments        string     `json:"comments" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ComponentMilestone) TableName() string {
	return "component_milestones"
}

// Workflow types
const (
	WorkflowDiscrete   = "MILESTONE_DISCRETE"
	WorkflowPercentage = "MILESTONE_PERCENTAGE"
	WorkflowQuantity   = "MILESTONE_QUANTITY"
)

// Component statuses, derived from completion percent
const (
	ComponentStatusNotStarted = "NOT_STARTED"
	ComponentStatusInProgress = "IN_PROGRESS"
	ComponentStatusCompleted  = "COMPLETED"
)

// Component types
const (
	ComponentTypeSpool      = "SPOOL"
	ComponentTypeValve      = "VALVE"
	ComponentTypeFitting    = "FITTING"
	ComponentTypeFlange     = "FLANGE"
	ComponentTypeSupport    = "SUPPORT"
	ComponentTypeInstrument = "INSTRUMENT"
	ComponentTypeGasket     = "GASKET"
	ComponentTypeFieldWeld  = "FIELD_WELD"
)

// MilestoneWeldMade is the designated milestone whose transitions are
// mirrored onto the paired FieldWeld record.
const MilestoneWeldMade = "Weld Made"
