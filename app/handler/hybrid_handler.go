package handler

import (
	"net/http"
	"strconv"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/internal/service"
	"hybridmcp/pkg/hybrid"

	"github.com/gin-gonic/gin"
)

// SnapshotRequest resource readings supplied by the caller. Omitted
// readings stay missing and route fail-safe.
type SnapshotRequest struct {
	CPUPercent       *float64 `json:"cpu_percent"`
	MemoryPercent    *float64 `json:"memory_percent"`
	GPUPercent       *float64 `json:"gpu_percent"`
	NetworkAvailable *bool    `json:"network_available"`
}

// DecideRequest routing evaluation request. Without a snapshot the
// current system readings are sampled.
type DecideRequest struct {
	Name                       string           `json:"name"`
	EstimatedDurationSeconds   float64          `json:"estimated_duration_seconds"`
	RequiresSpecializedService bool             `json:"requires_specialized_service"`
	UsesGPU                    bool             `json:"uses_gpu"`
	Priority                   string           `json:"priority"`
	EstimatedCPU               float64          `json:"estimated_cpu"`
	EstimatedMemory            float64          `json:"estimated_memory"`
	FunctionName               string           `json:"function_name"`
	Snapshot                   *SnapshotRequest `json:"snapshot,omitempty"`
}

// Task converts the request into a task descriptor
func (r *DecideRequest) Task() (hybrid.TaskDescriptor, error) {
	duration, err := hybrid.DurationFromSeconds(r.EstimatedDurationSeconds)
	if err != nil {
		return hybrid.TaskDescriptor{}, err
	}
	return hybrid.TaskDescriptor{
		Name:                       r.Name,
		EstimatedDuration:          duration,
		RequiresSpecializedService: r.RequiresSpecializedService,
		UsesGPU:                    r.UsesGPU,
		Priority:                   hybrid.ParsePriority(r.Priority),
		EstimatedCPU:               r.EstimatedCPU,
		EstimatedMemory:            r.EstimatedMemory,
		FunctionName:               r.FunctionName,
	}, nil
}

// ResourceSnapshot converts the supplied readings, nil when none were sent.
// The network is assumed up unless stated.
func (r *DecideRequest) ResourceSnapshot() *hybrid.ResourceSnapshot {
	if r.Snapshot == nil {
		return nil
	}
	network := true
	if r.Snapshot.NetworkAvailable != nil {
		network = *r.Snapshot.NetworkAvailable
	}
	return &hybrid.ResourceSnapshot{
		CPUPercent:       r.Snapshot.CPUPercent,
		MemoryPercent:    r.Snapshot.MemoryPercent,
		GPUPercent:       r.Snapshot.GPUPercent,
		NetworkAvailable: network,
		SampledAt:        time.Now(),
	}
}

// DecideResponse routing evaluation result
type DecideResponse struct {
	Decision hybrid.RoutingDecision   `json:"decision"`
	Snapshot *hybrid.ResourceSnapshot `json:"snapshot,omitempty"`
}

// HybridHandler handles routing and execution inspection
type HybridHandler struct {
	exec *service.ExecutionService
}

// NewHybridHandler creates hybrid handler
func NewHybridHandler(exec *service.ExecutionService) *HybridHandler {
	return &HybridHandler{exec: exec}
}

// Status gets system status
// @Summary Get hybrid execution status
// @Description Current resource readings, recent summary, thresholds and running tasks
// @Tags hybrid
// @Produce json
// @Success 200 {object} service.SystemStatus
// @Router /v1/hybrid/status [get]
func (h *HybridHandler) Status(c *gin.Context) {
	st, err := h.exec.Status(c.Request.Context())
	if err != nil {
		respondError(c, "get hybrid status", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Decide evaluates a routing decision without running anything
// @Summary Evaluate routing decision
// @Description Decide where a task would run for the given or sampled resource readings
// @Tags hybrid
// @Accept json
// @Produce json
// @Param request body DecideRequest true "Task and optional readings"
// @Success 200 {object} DecideResponse
// @Router /v1/hybrid/decide [post]
func (h *HybridHandler) Decide(c *gin.Context) {
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Name == "" {
		req.Name = "adhoc"
	}
	task, err := req.Task()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	snap := req.ResourceSnapshot()
	if snap == nil {
		sampled := h.exec.Sample(ctx)
		snap = &sampled
	}
	d := h.exec.Decide(ctx, snap, task)
	c.JSON(http.StatusOK, DecideResponse{Decision: d, Snapshot: snap})
}

// Thresholds gets routing thresholds
// @Summary Get routing thresholds
// @Tags hybrid
// @Produce json
// @Success 200 {object} hybrid.Thresholds
// @Router /v1/hybrid/thresholds [get]
func (h *HybridHandler) Thresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.exec.Router().Thresholds())
}

// ListExecutions lists recorded executions
// @Summary List executions
// @Description List recorded executions newest first
// @Tags hybrid
// @Produce json
// @Param task query string false "Task name"
// @Param location query string false "local or remote"
// @Param status query string false "Execution status"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "Page size (default 50, max 500)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /v1/hybrid/executions [get]
func (h *HybridHandler) ListExecutions(c *gin.Context) {
	filter := model.ExecutionFilter{
		TaskName: c.Query("task"),
		Location: c.Query("location"),
		Status:   model.ExecutionStatus(c.Query("status")),
		Limit:    50,
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = min(limit, 500)
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		filter.Offset = offset
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since, expected RFC3339"})
			return
		}
		filter.Since = since
	}

	records, err := h.exec.ListExecutions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "list executions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"executions": records,
		"count":      len(records),
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	})
}

// GetExecution gets one execution record
// @Summary Get execution
// @Tags hybrid
// @Produce json
// @Param id path string true "Execution ID"
// @Success 200 {object} model.ExecutionRecord
// @Router /v1/hybrid/executions/{id} [get]
func (h *HybridHandler) GetExecution(c *gin.Context) {
	rec, err := h.exec.GetExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get execution", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
