package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/google/uuid"
)

// ErrWeightSum is returned when a template's milestone weights do not
// sum to 100.
var ErrWeightSum = errors.New("milestone weights must sum to 100")

// TemplateService manages milestone templates.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	projectRepo  *repository.ProjectRepository
}

func NewTemplateService(templateRepo *repository.TemplateRepository, projectRepo *repository.ProjectRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo, projectRepo: projectRepo}
}

// TemplateMilestoneRequest describes one milestone in a template.
type TemplateMilestoneRequest struct {
	Name           string   `json:"name" binding:"required"`
	Weight         float64  `json:"weight" binding:"required"`
	QuantityTarget *float64 `json:"quantity_target"`
}

// CreateTemplateRequest describes a new milestone template.
type CreateTemplateRequest struct {
	ProjectID   string                     `json:"project_id" binding:"required"`
	Name        string                     `json:"name" binding:"required"`
	Description string                     `json:"description"`
	Milestones  []TemplateMilestoneRequest `json:"milestones" binding:"required,min=1"`
}

// Create persists a template after verifying the weights sum to 100.
// A small tolerance absorbs float accumulation error.
func (s *TemplateService) Create(ctx context.Context, userID string, req *CreateTemplateRequest) (*entity.MilestoneTemplate, error) {
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}

	var sum float64
	for _, m := range req.Milestones {
		if m.Weight <= 0 {
			return nil, fmt.Errorf("milestone %q: weight must be positive", m.Name)
		}
		if m.QuantityTarget != nil && *m.QuantityTarget <= 0 {
			return nil, fmt.Errorf("milestone %q: quantity target must be positive", m.Name)
		}
		sum += m.Weight
	}
	if math.Abs(sum-100) > 0.01 {
		return nil, fmt.Errorf("%w, got %.2f", ErrWeightSum, sum)
	}

	now := time.Now()
	template := &entity.MilestoneTemplate{
		ID:          uuid.New().String()[:32],
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	milestones := make([]entity.TemplateMilestone, 0, len(req.Milestones))
	for i, m := range req.Milestones {
		milestones = append(milestones, entity.TemplateMilestone{
			ID:             uuid.New().String()[:32],
			TemplateID:     template.ID,
			Name:           m.Name,
			SortOrder:      i + 1,
			Weight:         m.Weight,
			QuantityTarget: m.QuantityTarget,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	template.Milestones = milestones
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

// Get loads a template with its milestone definitions.
func (s *TemplateService) Get(ctx context.Context, userID, id string) (*entity.MilestoneTemplate, error) {
	template, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, template.ProjectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}
	return template, nil
}

// ListByProject returns a project's templates with component usage counts.
func (s *TemplateService) ListByProject(ctx context.Context, userID, projectID string) ([]entity.MilestoneTemplate, error) {
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}
	return s.templateRepo.ListByProject(ctx, projectID)
}
