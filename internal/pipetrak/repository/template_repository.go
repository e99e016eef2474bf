package repository

import (
	"context"
	"errors"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"gorm.io/gorm"
)

// TemplateRepository persists milestone templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByID loads a template with its milestone definitions in order.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.MilestoneTemplate, error) {
	var template entity.MilestoneTemplate
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// Create inserts a template and its milestone definitions in one
// transaction.
func (r *TemplateRepository) Create(ctx context.Context, template *entity.MilestoneTemplate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestones := template.Milestones
		template.Milestones = nil
		if err := tx.Create(template).Error; err != nil {
			return err
		}
		if len(milestones) > 0 {
			if err := tx.Create(&milestones).Error; err != nil {
				return err
			}
		}
		template.Milestones = milestones
		return nil
	})
}

// ListByProject lists a project's templates with their milestones.
func (r *TemplateRepository) ListByProject(ctx context.Context, projectID string) ([]entity.MilestoneTemplate, error) {
	var templates []entity.MilestoneTemplate
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&templates).Error
	return templates, err
}

// CountComponents reports how many components reference a template.
func (r *TemplateRepository) CountComponents(ctx context.Context, templateID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Component{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	return count, err
}
