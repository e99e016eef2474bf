package repository

import (
	"context"
	"errors"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"gorm.io/gorm"
)

// FieldWeldRepository persists field weld records.
type FieldWeldRepository struct {
	db *gorm.DB
}

func NewFieldWeldRepository(db *gorm.DB) *FieldWeldRepository {
	return &FieldWeldRepository{db: db}
}

// FindByWeldID resolves a weld by its project-scoped weld number.
func (r *FieldWeldRepository) FindByWeldID(ctx context.Context, projectID, weldID string) (*entity.FieldWeld, error) {
	var weld entity.FieldWeld
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND weld_id = ?", projectID, weldID).
		First(&weld).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &weld, nil
}

// Create inserts a field weld.
func (r *FieldWeldRepository) Create(ctx context.Context, weld *entity.FieldWeld) error {
	return r.db.WithContext(ctx).Create(weld).Error
}

// Update saves a field weld.
func (r *FieldWeldRepository) Update(ctx context.Context, weld *entity.FieldWeld) error {
	return r.db.WithContext(ctx).Save(weld).Error
}

// FindWelderByID loads a welder.
func (r *FieldWeldRepository) FindWelderByID(ctx context.Context, id string) (*entity.Welder, error) {
	var welder entity.Welder
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&welder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &welder, nil
}
