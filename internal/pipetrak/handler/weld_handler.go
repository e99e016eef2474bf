package handler

import (
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/gin-gonic/gin"
)

// WeldHandler serves field weld reads for QC review.
type WeldHandler struct {
	fieldWeldRepo *repository.FieldWeldRepository
	projectRepo   *repository.ProjectRepository
}

func NewWeldHandler(fieldWeldRepo *repository.FieldWeldRepository, projectRepo *repository.ProjectRepository) *WeldHandler {
	return &WeldHandler{fieldWeldRepo: fieldWeldRepo, projectRepo: projectRepo}
}

// Get handles GET /projects/:id/welds/:weldId.
func (h *WeldHandler) Get(c *gin.Context) {
	projectID := c.Param("id")

	isMember, err := h.projectRepo.IsOrgMember(c.Request.Context(), GetUserID(c), projectID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if !isMember {
		Forbidden(c, service.ErrAccessDenied.Error())
		return
	}

	weld, err := h.fieldWeldRepo.FindByWeldID(c.Request.Context(), projectID, c.Param("weldId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, weld)
}

// GetWelder handles GET /welders/:id.
func (h *WeldHandler) GetWelder(c *gin.Context) {
	welder, err := h.fieldWeldRepo.FindWelderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	isMember, err := h.projectRepo.IsOrgMember(c.Request.Context(), GetUserID(c), welder.ProjectID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if !isMember {
		Forbidden(c, service.ErrAccessDenied.Error())
		return
	}
	Success(c, welder)
}
