package hybrid

// CostModel estimates the cost of running a task remotely
type CostModel struct {
	BaseCost     float64 `json:"base_cost"`     // per execution
	ResourceRate float64 `json:"resource_rate"` // per unit of (cpu + memory) fraction
	DurationRate float64 `json:"duration_rate"` // per second of estimated duration
}

// DefaultCostModel returns the consumption pricing used for remote estimates.
func DefaultCostModel() CostModel {
	return CostModel{
		BaseCost:     0.01,
		ResourceRate: 0.005,
		DurationRate: 0.001,
	}
}

// Estimate returns the remote cost of task in USD.
func (m CostModel) Estimate(task TaskDescriptor) float64 {
	seconds := task.EstimatedDuration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	resources := task.EstimatedCPU + task.EstimatedMemory
	if resources < 0 {
		resources = 0
	}
	return m.BaseCost + resources*m.ResourceRate + seconds*m.DurationRate
}
