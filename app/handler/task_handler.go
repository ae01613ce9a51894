package handler

import (
	"net/http"

	"hybridmcp/internal/model"
	"hybridmcp/internal/service"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles async task operations
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Submit submits an async task
// @Summary Submit async task
// @Description Queue a complete, analyze_code or vibe_code task and return its id
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body model.SubmitRequest true "Task request"
// @Success 202 {object} model.SubmitResponse
// @Router /v1/tasks [post]
func (h *TaskHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := h.taskService.Submit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "submit task", err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// Status gets task status
// @Summary Get task status
// @Description Get task status and output by task ID
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} model.Task
// @Router /v1/tasks/{task_id} [get]
func (h *TaskHandler) Status(c *gin.Context) {
	task, err := h.taskService.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		respondError(c, "get task status", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Stats gets queue statistics
// @Summary Get queue statistics
// @Tags tasks
// @Produce json
// @Success 200 {object} interfaces.QueueStats
// @Router /v1/tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.taskService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "get queue stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
