package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Project   *ProjectRepository
	Component *ComponentRepository
	Template  *TemplateRepository
	FieldWeld *FieldWeldRepository
	Audit     *AuditRepository
}

// NewRepositories wires all repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Project:   NewProjectRepository(db),
		Component: NewComponentRepository(db),
		Template:  NewTemplateRepository(db),
		FieldWeld: NewFieldWeldRepository(db),
		Audit:     NewAuditRepository(db),
	}
}
