package task

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

// Handler handles task HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates task handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateTask handles POST /api/v1/projects/:id/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !response.BindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateTask(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, t)
}

// ListProjectTasks handles GET /api/v1/projects/:id/tasks
func (h *Handler) ListProjectTasks(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	tasks, err := h.service.ListForProject(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// ListMine handles GET /api/v1/tasks/mine
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	tasks, err := h.service.ListForWriter(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// GetTask handles GET /api/v1/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	t, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// StartTask handles POST /api/v1/tasks/:id/start
func (h *Handler) StartTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	t, err := h.service.StartTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// CompleteTask handles POST /api/v1/tasks/:id/complete
func (h *Handler) CompleteTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	t, err := h.service.CompleteTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}
