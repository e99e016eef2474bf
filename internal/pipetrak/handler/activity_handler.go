package handler

import (
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/gin-gonic/gin"
)

// ActivityHandler serves the project audit feed.
type ActivityHandler struct {
	auditRepo   *repository.AuditRepository
	projectRepo *repository.ProjectRepository
}

func NewActivityHandler(auditRepo *repository.AuditRepository, projectRepo *repository.ProjectRepository) *ActivityHandler {
	return &ActivityHandler{auditRepo: auditRepo, projectRepo: projectRepo}
}

// List handles GET /projects/:id/activity.
func (h *ActivityHandler) List(c *gin.Context) {
	userID := GetUserID(c)
	projectID := c.Param("id")

	isMember, err := h.projectRepo.IsOrgMember(c.Request.Context(), userID, projectID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if !isMember {
		Forbidden(c, service.ErrAccessDenied.Error())
		return
	}

	page, pageSize := GetPagination(c)
	entries, total, err := h.auditRepo.ListByProject(c.Request.Context(), projectID, page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: entries,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// ListTransaction handles GET /transactions/:id/activity.
func (h *ActivityHandler) ListTransaction(c *gin.Context) {
	txn, err := h.auditRepo.FindTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	isMember, err := h.projectRepo.IsOrgMember(c.Request.Context(), GetUserID(c), txn.ProjectID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	if !isMember {
		Forbidden(c, service.ErrAccessDenied.Error())
		return
	}

	entries, err := h.auditRepo.ListByTransaction(c.Request.Context(), txn.ID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"transaction": txn, "entries": entries})
}
