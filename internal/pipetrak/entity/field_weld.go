package entity

import "time"

// FieldWeld is the denormalized weld record paired with a FIELD_WELD
// component. DateWelded, WelderID and Comments mirror the most recent
// "Weld Made" milestone transition on the paired component; clearing
// the milestone clears these fields.
type FieldWeld struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	ProjectID    string     `json:"project_id" gorm:"size:32;not null;index"`
	WeldID       string     `json:"weld_id" gorm:"size:50;not null;index:idx_field_welds_project_weld"`
	DrawingID    *string    `json:"drawing_id" gorm:"size:32"`
	WeldSize     string     `json:"weld_size" gorm:"size:20"`
	Schedule     string     `json:"schedule" gorm:"size:20"`
	WeldType     string     `json:"weld_type" gorm:"size:20"`
	DateWelded   *time.Time `json:"date_welded" gorm:"type:date"`
	WelderID     *string    `json:"welder_id" gorm:"size:32"`
	Comments     string     `json:"comments" gorm:"type:text"`
	XrayPercent  *float64   `json:"xray_percent" gorm:"type:decimal(5,2)"`
	PWHTRequired bool       `json:"pwht_required" gorm:"default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Associations
	Welder *Welder `json:"welder,omitempty" gorm:"foreignKey:WelderID"`
}

func (FieldWeld) TableName() string {
	return "field_welds"
}

// Welder identifies a welder by stencil within a project.
type Welder struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string    `json:"project_id" gorm:"size:32;not null;index"`
	Stencil   string    `json:"stencil" gorm:"size:20;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Welder) TableName() string {
	return "welders"
}
