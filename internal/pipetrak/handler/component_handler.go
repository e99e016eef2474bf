package handler

import (
	"errors"

	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/gin-gonic/gin"
)

// ComponentHandler serves component CRUD.
type ComponentHandler struct {
	svc *service.ComponentService
}

func NewComponentHandler(svc *service.ComponentService) *ComponentHandler {
	return &ComponentHandler{svc: svc}
}

// Create handles POST /components.
func (h *ComponentHandler) Create(c *gin.Context) {
	var req service.CreateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	component, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			Forbidden(c, err.Error())
			return
		}
		writeServiceError(c, err)
		return
	}
	Created(c, component)
}

// Get handles GET /components/:id.
func (h *ComponentHandler) Get(c *gin.Context) {
	component, err := h.svc.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, component)
}

// List handles GET /projects/:id/components.
func (h *ComponentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"drawing_id": c.Query("drawing_id"),
		"type":       c.Query("type"),
		"status":     c.Query("status"),
		"search":     c.Query("search"),
	}

	components, total, err := h.svc.List(c.Request.Context(), GetUserID(c), c.Param("id"), page, pageSize, filters)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: components,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}
