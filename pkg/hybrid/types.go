package hybrid

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidThresholds is returned for malformed routing thresholds.
var ErrInvalidThresholds = errors.New("invalid routing thresholds")

// ErrInvalidDuration is returned for a negative or non-numeric duration estimate.
var ErrInvalidDuration = errors.New("invalid estimated duration")

// maxSeconds is the largest whole second count a time.Duration can hold
const maxSeconds = math.MaxInt64 / int64(time.Second)

// DurationFromSeconds converts a duration estimate in seconds. Estimates
// beyond the largest time.Duration saturate instead of wrapping negative.
func DurationFromSeconds(secs float64) (time.Duration, error) {
	switch {
	case math.IsNaN(secs) || secs < 0:
		return 0, fmt.Errorf("%w: %v seconds", ErrInvalidDuration, secs)
	case secs >= float64(maxSeconds):
		return math.MaxInt64, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Target execution location
type Target string

const (
	TargetNone   Target = ""
	TargetLocal  Target = "local"
	TargetRemote Target = "remote"
)

// Priority task priority, informational only
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority maps a string onto a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Reason names a trigger that pushed a task to remote execution
type Reason string

const (
	ReasonCPU         Reason = "CPU"
	ReasonMemory      Reason = "memory"
	ReasonGPU         Reason = "GPU"
	ReasonDuration    Reason = "duration"
	ReasonSpecialized Reason = "specialized service"
)

// ResourceSnapshot current resource readings. A nil reading is missing.
type ResourceSnapshot struct {
	CPUPercent       *float64  `json:"cpu_percent"`
	MemoryPercent    *float64  `json:"memory_percent"`
	GPUPercent       *float64  `json:"gpu_percent,omitempty"`
	NetworkAvailable bool      `json:"network_available"`
	SampledAt        time.Time `json:"sampled_at"`
}

// Percent returns a pointer to v, for building snapshots.
func Percent(v float64) *float64 {
	return &v
}

// TaskDescriptor describes one unit of work to be routed
type TaskDescriptor struct {
	Name                       string        `json:"name"`
	EstimatedDuration          time.Duration `json:"estimated_duration"`
	RequiresSpecializedService bool          `json:"requires_specialized_service"`
	UsesGPU                    bool          `json:"uses_gpu"`
	Priority                   Priority      `json:"priority"`
	EstimatedCPU               float64       `json:"estimated_cpu"`    // fraction of a core, cost only
	EstimatedMemory            float64       `json:"estimated_memory"` // fraction of memory, cost only
	FunctionName               string        `json:"function_name,omitempty"`
}

// Thresholds routing thresholds
type Thresholds struct {
	CPUPercent    float64       `json:"cpu_percent"`
	MemoryPercent float64       `json:"memory_percent"`
	GPUPercent    float64       `json:"gpu_percent"`
	MaxDuration   time.Duration `json:"max_duration"`
}

// DefaultThresholds returns 80% CPU, 85% memory, 90% GPU and a 5 minute ceiling.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercent:    80,
		MemoryPercent: 85,
		GPUPercent:    90,
		MaxDuration:   5 * time.Minute,
	}
}

// Validate reports malformed thresholds
func (t Thresholds) Validate() error {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"cpu", t.CPUPercent},
		{"memory", t.MemoryPercent},
		{"gpu", t.GPUPercent},
	} {
		if !validPercent(p.value) {
			return fmt.Errorf("%w: %s threshold %v outside [0,100]", ErrInvalidThresholds, p.name, p.value)
		}
	}
	if t.MaxDuration <= 0 {
		return fmt.Errorf("%w: duration ceiling must be positive, got %s", ErrInvalidThresholds, t.MaxDuration)
	}
	return nil
}

// RoutingDecision result of routing a task
type RoutingDecision struct {
	Target            Target        `json:"target"`
	Rationale         string        `json:"rationale"`
	Reasons           []Reason      `json:"reasons,omitempty"`
	Confidence        float64       `json:"confidence"`
	EstimatedCost     float64       `json:"estimated_cost"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	Alternative       Target        `json:"alternative,omitempty"`
	FailSafe          bool          `json:"fail_safe"`
}

// HasReason reports whether r triggered the decision.
func (d RoutingDecision) HasReason(r Reason) bool {
	for _, reason := range d.Reasons {
		if reason == r {
			return true
		}
	}
	return false
}

func validPercent(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

func usable(p *float64) bool {
	return p != nil && validPercent(*p)
}
