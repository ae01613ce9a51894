package model

import "time"

// ExecutionStatus outcome of an execution
type ExecutionStatus string

const (
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ExecutionRecord audit entry for one routed execution
type ExecutionRecord struct {
	ID            string          `json:"id"`
	TaskName      string          `json:"task_name"`
	Priority      string          `json:"priority"`
	Location      string          `json:"location"`         // where the task finally ran
	Decision      string          `json:"decision"`         // router target
	Rationale     string          `json:"rationale"`
	Confidence    float64         `json:"confidence"`
	EstimatedCost float64         `json:"estimated_cost"`
	FailSafe      bool            `json:"fail_safe"`
	FallbackUsed  bool            `json:"fallback_used"`
	Status        ExecutionStatus `json:"status"`
	Error         string          `json:"error,omitempty"`
	DurationMs    int64           `json:"duration_ms"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ExecutionFilter narrows execution record listings
type ExecutionFilter struct {
	TaskName string
	Location string
	Status   ExecutionStatus
	Since    time.Time
	Limit    int
	Offset   int
}
