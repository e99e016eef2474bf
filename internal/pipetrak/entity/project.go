package entity

import "time"

// Organization owns projects and gates who may update them.
type Organization struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	OrganizationID string    `json:"organization_id" gorm:"size:32;not null;index:idx_org_members_org_user"`
	UserID         string    `json:"user_id" gorm:"size:32;not null;index:idx_org_members_org_user"`
	Role           string    `json:"role" gorm:"size:20;not null;default:member"` // owner/admin/member
	CreatedAt      time.Time `json:"created_at"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

// User is the acting identity behind milestone updates.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex"`
	Status    string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Project is one construction job.
type Project struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	OrganizationID string     `json:"organization_id" gorm:"size:32;not null;index"`
	JobNumber      string     `json:"job_number" gorm:"size:50;not null"`
	Name           string     `json:"name" gorm:"size:200;not null"`
	Status         string     `json:"status" gorm:"size:16;not null;default:active"`
	Description    string     `json:"description" gorm:"type:text"`
	CreatedBy      string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	// Associations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
}

func (Project) TableName() string {
	return "projects"
}

// Drawing is an isometric or P&ID sheet components belong to.
type Drawing struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string    `json:"project_id" gorm:"size:32;not null;index"`
	Number    string    `json:"number" gorm:"size:100;not null"`
	Title     string    `json:"title" gorm:"size:255"`
	Revision  string    `json:"revision" gorm:"size:20"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Drawing) TableName() string {
	return "drawings"
}

// Project status
const (
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Organization roles
const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)
