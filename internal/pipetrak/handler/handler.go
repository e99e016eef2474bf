package handler

import (
	"strconv"

	"github.com/clachance14/pipetrak/internal/pipetrak/service"
	"github.com/gin-gonic/gin"
)

// Handlers aggregates the HTTP handlers.
type Handlers struct {
	Milestone *MilestoneHandler
	Component *ComponentHandler
	Template  *TemplateHandler
	Activity  *ActivityHandler
	Weld      *WeldHandler
	SSE       *SSEHandler
}

// NewHandlers wires the handler layer over the services.
func NewHandlers(svc *service.Services, activity *ActivityHandler, weld *WeldHandler, sse *SSEHandler) *Handlers {
	return &Handlers{
		Milestone: NewMilestoneHandler(svc.Milestone),
		Component: NewComponentHandler(svc.Component),
		Template:  NewTemplateHandler(svc.Template),
		Activity:  activity,
		Weld:      weld,
		SSE:       sse,
	}
}

// Response is the common response envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps paged results.
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination carries paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error response. The HTTP status is the first three
// digits of the business code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound writes a 404 response.
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict writes a 409 response.
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// UnprocessableEntity writes a 422 response.
func UnprocessableEntity(c *gin.Context, message string) {
	Error(c, 42200, message)
}

// InternalError writes a 500 response.
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID reads the authenticated user ID from the context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page/page_size query params with defaults.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
