package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/google/uuid"
)

// ComponentService creates and reads trackable components.
type ComponentService struct {
	componentRepo *repository.ComponentRepository
	templateRepo  *repository.TemplateRepository
	projectRepo   *repository.ProjectRepository
}

func NewComponentService(componentRepo *repository.ComponentRepository, templateRepo *repository.TemplateRepository, projectRepo *repository.ProjectRepository) *ComponentService {
	return &ComponentService{
		componentRepo: componentRepo,
		templateRepo:  templateRepo,
		projectRepo:   projectRepo,
	}
}

// CreateComponentRequest describes a new component.
type CreateComponentRequest struct {
	ProjectID    string  `json:"project_id" binding:"required"`
	DrawingID    *string `json:"drawing_id"`
	ComponentID  string  `json:"component_id" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	Description  string  `json:"description"`
	WorkflowType string  `json:"workflow_type"`
	TemplateID   string  `json:"template_id" binding:"required"`
	WeldID       *string `json:"weld_id"`
}

// Create instantiates a component from its milestone template: the
// component row and its full milestone set are written in one
// transaction, with name, weight, order and quantity target copied
// from the template definitions.
func (s *ComponentService) Create(ctx context.Context, userID string, req *CreateComponentRequest) (*entity.Component, error) {
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}

	template, err := s.templateRepo.FindByID(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if template.ProjectID != req.ProjectID {
		return nil, fmt.Errorf("template %s does not belong to project %s", req.TemplateID, req.ProjectID)
	}

	workflowType := req.WorkflowType
	if workflowType == "" {
		workflowType = entity.WorkflowDiscrete
	}
	switch workflowType {
	case entity.WorkflowDiscrete, entity.WorkflowPercentage, entity.WorkflowQuantity:
	default:
		return nil, fmt.Errorf("unsupported workflow type %q", workflowType)
	}

	now := time.Now()
	component := &entity.Component{
		ID:           uuid.New().String()[:32],
		ProjectID:    req.ProjectID,
		DrawingID:    req.DrawingID,
		ComponentID:  req.ComponentID,
		Type:         req.Type,
		Description:  req.Description,
		WorkflowType: workflowType,
		TemplateID:   req.TemplateID,
		Status:       entity.ComponentStatusNotStarted,
		WeldID:       req.WeldID,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	milestones := make([]entity.ComponentMilestone, 0, len(template.Milestones))
	for _, def := range template.Milestones {
		milestones = append(milestones, entity.ComponentMilestone{
			ID:             uuid.New().String()[:32],
			ComponentID:    component.ID,
			Name:           def.Name,
			SortOrder:      def.SortOrder,
			Weight:         def.Weight,
			QuantityTarget: def.QuantityTarget,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.componentRepo.Create(ctx, component, milestones); err != nil {
		return nil, fmt.Errorf("create component: %w", err)
	}
	component.Milestones = milestones
	return component, nil
}

// Get loads a component with milestones, enforcing org membership.
func (s *ComponentService) Get(ctx context.Context, userID, id string) (*entity.Component, error) {
	component, err := s.componentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, component.ProjectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}
	return component, nil
}

// List pages a project's components, enforcing org membership.
func (s *ComponentService) List(ctx context.Context, userID, projectID string, page, pageSize int, filters map[string]interface{}) ([]entity.Component, int64, error) {
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, projectID)
	if err != nil {
		return nil, 0, err
	}
	if !isMember {
		return nil, 0, ErrAccessDenied
	}
	return s.componentRepo.List(ctx, projectID, page, pageSize, filters)
}
