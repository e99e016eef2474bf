package entity

import "time"

// MilestoneTemplate is an ordered, weighted list of milestone
// definitions assigned per component type ("Full", "Reduced",
// "Field Weld"). Weights across a template must sum to 100; templates
// are never mutated once components reference them.
type MilestoneTemplate struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID   string    `json:"project_id" gorm:"size:32;not null;index"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsDefault   bool      `json:"is_default" gorm:"default:false"`
	CreatedBy   string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Milestones []TemplateMilestone `json:"milestones,omitempty" gorm:"foreignKey:TemplateID"`
}

func (MilestoneTemplate) TableName() string {
	return "milestone_templates"
}

// TemplateMilestone is one milestone definition within a template.
type TemplateMilestone struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	TemplateID     string    `json:"template_id" gorm:"size:32;not null;index"`
	Name           string    `json:"name" gorm:"size:100;not null"`
	Weight         float64   `json:"weight" gorm:"type:decimal(6,2);not null"`
	SortOrder      int       `json:"sort_order" gorm:"not null;default:0"`
	QuantityTarget *float64  `json:"quantity_target" gorm:"type:decimal(12,2)"` // only meaningful for quantity workflows
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (TemplateMilestone) TableName() string {
	return "template_milestones"
}
