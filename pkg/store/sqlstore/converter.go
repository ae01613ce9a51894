package sqlstore

import (
	domain "hybridmcp/internal/model"
	"hybridmcp/pkg/store/sqlstore/model"
)

// ToExecutionModel converts a domain record to a database row
func ToExecutionModel(r *domain.ExecutionRecord) *model.Execution {
	if r == nil {
		return nil
	}
	return &model.Execution{
		ExecutionID:   r.ID,
		TaskName:      r.TaskName,
		Priority:      r.Priority,
		Location:      r.Location,
		Decision:      r.Decision,
		Rationale:     r.Rationale,
		Confidence:    r.Confidence,
		EstimatedCost: r.EstimatedCost,
		FailSafe:      r.FailSafe,
		FallbackUsed:  r.FallbackUsed,
		Status:        string(r.Status),
		Error:         r.Error,
		DurationMs:    r.DurationMs,
		CreatedAt:     r.CreatedAt,
	}
}

// ToExecutionDomain converts a database row to a domain record
func ToExecutionDomain(m *model.Execution) *domain.ExecutionRecord {
	if m == nil {
		return nil
	}
	return &domain.ExecutionRecord{
		ID:            m.ExecutionID,
		TaskName:      m.TaskName,
		Priority:      m.Priority,
		Location:      m.Location,
		Decision:      m.Decision,
		Rationale:     m.Rationale,
		Confidence:    m.Confidence,
		EstimatedCost: m.EstimatedCost,
		FailSafe:      m.FailSafe,
		FallbackUsed:  m.FallbackUsed,
		Status:        domain.ExecutionStatus(m.Status),
		Error:         m.Error,
		DurationMs:    m.DurationMs,
		CreatedAt:     m.CreatedAt,
	}
}
