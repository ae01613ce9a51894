package model

import (
	"encoding/json"
	"time"
)

// TaskStatus async task status
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"     // Pending
	TaskStatusInProgress TaskStatus = "IN_PROGRESS" // In Progress
	TaskStatusCompleted  TaskStatus = "COMPLETED"   // Completed
	TaskStatusFailed     TaskStatus = "FAILED"      // Failed
)

// TaskKind names the operation an async task performs
type TaskKind string

const (
	TaskKindComplete    TaskKind = "complete"
	TaskKindAnalyzeCode TaskKind = "analyze_code"
	TaskKindVibeCode    TaskKind = "vibe_code"
)

// Task async task model
type Task struct {
	ID          string          `json:"id"`
	Kind        TaskKind        `json:"kind"`
	Input       json.RawMessage `json:"input"`
	Status      TaskStatus      `json:"status"`
	Output      json.RawMessage `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	Location    string          `json:"location,omitempty"` // where the task ran
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the task will not change again
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// SubmitRequest submit task request
type SubmitRequest struct {
	Kind  TaskKind        `json:"kind" binding:"required"`
	Input json.RawMessage `json:"input" binding:"required"`
}

// SubmitResponse submit task response
type SubmitResponse struct {
	ID     string     `json:"id"`
	Status TaskStatus `json:"status"`
}
