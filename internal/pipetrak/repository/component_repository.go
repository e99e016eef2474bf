package repository

import (
	"context"
	"errors"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"gorm.io/gorm"
)

// ComponentRepository persists components and their milestone sets.
type ComponentRepository struct {
	db *gorm.DB
}

func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// DB exposes the underlying handle for service-level transactions.
func (r *ComponentRepository) DB() *gorm.DB {
	return r.db
}

// FindByID loads a component with its milestone set.
func (r *ComponentRepository) FindByID(ctx context.Context, id string) (*entity.Component, error) {
	var component entity.Component
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Drawing").
		Where("id = ?", id).
		First(&component).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &component, nil
}

// Create inserts a component together with its milestone rows in one
// transaction.
func (r *ComponentRepository) Create(ctx context.Context, component *entity.Component, milestones []entity.ComponentMilestone) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(component).Error; err != nil {
			return err
		}
		if len(milestones) > 0 {
			if err := tx.Create(&milestones).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update saves a component.
func (r *ComponentRepository) Update(ctx context.Context, component *entity.Component) error {
	return r.db.WithContext(ctx).Save(component).Error
}

// FindMilestoneByID loads a milestone by primary key.
func (r *ComponentRepository) FindMilestoneByID(ctx context.Context, id string) (*entity.ComponentMilestone, error) {
	var milestone entity.ComponentMilestone
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&milestone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &milestone, nil
}

// List returns components for a project with filters and paging.
func (r *ComponentRepository) List(ctx context.Context, projectID string, page, pageSize int, filters map[string]interface{}) ([]entity.Component, int64, error) {
	var components []entity.Component
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Component{}).
		Where("project_id = ?", projectID)

	if drawingID, ok := filters["drawing_id"].(string); ok && drawingID != "" {
		query = query.Where("drawing_id = ?", drawingID)
	}
	if componentType, ok := filters["type"].(string); ok && componentType != "" {
		query = query.Where("type = ?", componentType)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if search, ok := filters["search"].(string); ok && search != "" {
		query = query.Where("component_id ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Drawing").
		Order("component_id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&components).Error

	return components, total, err
}
