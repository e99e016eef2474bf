package repository

import (
	"context"
	"errors"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"gorm.io/gorm"
)

// ProjectRepository reads projects and answers organization-membership
// questions for access control.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID loads a project.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// IsOrgMember reports whether the user belongs to the organization
// owning the given project.
func (r *ProjectRepository) IsOrgMember(ctx context.Context, userID, projectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.OrganizationMember{}).
		Joins("JOIN projects ON projects.organization_id = organization_members.organization_id").
		Where("projects.id = ? AND organization_members.user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
