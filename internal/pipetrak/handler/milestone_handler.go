package handler

import (
	"errors"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/gin-gonic/gin"
)

// MilestoneHandler serves milestone update operations.
type MilestoneHandler struct {
	svc *service.MilestoneService
}

func NewMilestoneHandler(svc *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{svc: svc}
}

// MilestoneValueRequest carries exactly one of the three value forms.
type MilestoneValueRequest struct {
	Completed  *bool    `json:"completed"`
	Percentage *float64 `json:"percentage"`
	Quantity   *float64 `json:"quantity"`
}

// toValue converts the request into the internal value union.
func (r *MilestoneValueRequest) toValue() (service.MilestoneValue, error) {
	set := 0
	if r.Completed != nil {
		set++
	}
	if r.Percentage != nil {
		set++
	}
	if r.Quantity != nil {
		set++
	}
	if set != 1 {
		return service.MilestoneValue{}, errors.New("exactly one of completed, percentage or quantity is required")
	}
	switch {
	case r.Completed != nil:
		return service.DiscreteValue(*r.Completed), nil
	case r.Percentage != nil:
		return service.PercentageValue(*r.Percentage)
	default:
		return service.QuantityValue(*r.Quantity)
	}
}

// UpdateMilestoneRequest is the body for a single milestone update.
type UpdateMilestoneRequest struct {
	MilestoneValueRequest
	EffectiveDate *string `json:"effective_date"`
	WelderID      *string `json:"welder_id"`
	Comments      string  `json:"comments"`
}

// BulkItemRequest is one entry of a bulk update body.
type BulkItemRequest struct {
	ComponentID   string `json:"component_id" binding:"required"`
	MilestoneName string `json:"milestone_name" binding:"required"`
	UpdateMilestoneRequest
}

// BulkUpdateRequest is the body for bulk milestone updates.
type BulkUpdateRequest struct {
	Updates      []BulkItemRequest `json:"updates" binding:"required,min=1"`
	ValidateOnly bool              `json:"validate_only"`
	Atomic       bool              `json:"atomic"`
	Notify       bool              `json:"notify"`
	BatchSize    int               `json:"batch_size"`
}

func parseEffectiveDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *s, time.Local)
	if err != nil {
		return nil, errors.New("effective_date must be formatted YYYY-MM-DD")
	}
	return &t, nil
}

func (r *UpdateMilestoneRequest) toUpdate(componentID, milestoneName string) (service.MilestoneUpdate, error) {
	value, err := r.toValue()
	if err != nil {
		return service.MilestoneUpdate{}, err
	}
	effective, err := parseEffectiveDate(r.EffectiveDate)
	if err != nil {
		return service.MilestoneUpdate{}, err
	}
	return service.MilestoneUpdate{
		ComponentID:   componentID,
		MilestoneName: milestoneName,
		Value:         value,
		EffectiveDate: effective,
		WelderID:      r.WelderID,
		Comments:      r.Comments,
	}, nil
}

// Update handles PATCH /components/:id/milestones/:name.
func (h *MilestoneHandler) Update(c *gin.Context) {
	var req UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	upd, err := req.toUpdate(c.Param("id"), c.Param("name"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	milestone, err := h.svc.UpdateMilestone(c.Request.Context(), GetUserID(c), upd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, milestone)
}

// BulkUpdate handles POST /milestones/bulk.
func (h *MilestoneHandler) BulkUpdate(c *gin.Context) {
	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updates := make([]service.MilestoneUpdate, 0, len(req.Updates))
	for _, item := range req.Updates {
		upd, err := item.toUpdate(item.ComponentID, item.MilestoneName)
		if err != nil {
			BadRequest(c, "Update for "+item.ComponentID+"/"+item.MilestoneName+": "+err.Error())
			return
		}
		updates = append(updates, upd)
	}

	resp, err := h.svc.BulkUpdate(c.Request.Context(), GetUserID(c), updates, service.BulkOptions{
		ValidateOnly: req.ValidateOnly,
		Atomic:       req.Atomic,
		Notify:       req.Notify,
		BatchSize:    req.BatchSize,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, resp)
}

// PreviewRequest is the body for a bulk preview.
type PreviewRequest struct {
	Updates []BulkItemRequest `json:"updates" binding:"required,min=1"`
}

// Preview handles POST /milestones/bulk/preview.
func (h *MilestoneHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updates := make([]service.MilestoneUpdate, 0, len(req.Updates))
	for _, item := range req.Updates {
		upd, err := item.toUpdate(item.ComponentID, item.MilestoneName)
		if err != nil {
			BadRequest(c, "Update for "+item.ComponentID+"/"+item.MilestoneName+": "+err.Error())
			return
		}
		updates = append(updates, upd)
	}

	items, err := h.svc.PreviewBulkUpdate(c.Request.Context(), GetUserID(c), updates)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// ResolveConflictRequest is the body for a conflict resolution.
type ResolveConflictRequest struct {
	Strategy string                 `json:"strategy" binding:"required"`
	Values   service.ConflictValues `json:"values"`
}

// ResolveConflict handles POST /milestones/:id/resolve-conflict.
func (h *MilestoneHandler) ResolveConflict(c *gin.Context) {
	var req ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	milestone, err := h.svc.ResolveConflict(c.Request.Context(), GetUserID(c), c.Param("id"), req.Strategy, req.Values)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, milestone)
}

// Undo handles POST /transactions/:id/undo.
func (h *MilestoneHandler) Undo(c *gin.Context) {
	resp, err := h.svc.UndoTransaction(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, resp)
}

// writeServiceError maps service errors onto HTTP responses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrComponentNotFound),
		errors.Is(err, service.ErrMilestoneNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrValueMismatch),
		errors.Is(err, service.ErrNoValue),
		errors.Is(err, service.ErrFutureDate),
		errors.Is(err, service.ErrGraceWindowClosed),
		errors.Is(err, service.ErrUnknownStrategy),
		errors.Is(err, service.ErrWeightSum):
		UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrAtomicValidation),
		errors.Is(err, service.ErrCrossProjectBatch):
		UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrAlreadyRolledBack),
		errors.Is(err, service.ErrTransactionPending):
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
