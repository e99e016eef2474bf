package handler

import (
	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/gin-gonic/gin"
)

// TemplateHandler serves milestone template CRUD.
type TemplateHandler struct {
	svc *service.TemplateService
}

func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// Create handles POST /templates.
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	template, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, template)
}

// Get handles GET /templates/:id.
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.svc.Get(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, template)
}

// List handles GET /projects/:id/templates.
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.svc.ListByProject(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"templates": templates})
}
