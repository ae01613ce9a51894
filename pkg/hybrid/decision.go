package hybrid

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	remoteConfidence      = 0.8
	failSafeConfidence    = 0.5
	unavailableConfidence = 0.4

	// remote calls pay 20% network overhead on top of the local estimate
	remoteOverheadNum = 6
	remoteOverheadDen = 5
)

// Decide classifies task as local or remote from the snapshot and thresholds.
// It is a pure function: identical inputs always give identical decisions.
//
// Unusable readings (missing, NaN or outside [0,100]) for CPU or memory, for
// GPU when the task uses it, or a negative duration estimate make the
// decision fall back to local execution with FailSafe set.
func Decide(snapshot ResourceSnapshot, task TaskDescriptor, thresholds Thresholds) RoutingDecision {
	if problems := unusableInputs(snapshot, task); len(problems) > 0 {
		duration := task.EstimatedDuration
		if duration < 0 {
			duration = 0
		}
		return RoutingDecision{
			Target:            TargetLocal,
			Rationale:         "fail-safe local execution, unusable inputs: " + strings.Join(problems, "; "),
			Confidence:        failSafeConfidence,
			EstimatedDuration: duration,
			FailSafe:          true,
		}
	}

	cpu := *snapshot.CPUPercent
	mem := *snapshot.MemoryPercent

	var reasons []Reason
	var details []string

	if cpu >= thresholds.CPUPercent {
		reasons = append(reasons, ReasonCPU)
		details = append(details, fmt.Sprintf("CPU usage %.1f%% at or above threshold %.1f%%", cpu, thresholds.CPUPercent))
	}
	if mem >= thresholds.MemoryPercent {
		reasons = append(reasons, ReasonMemory)
		details = append(details, fmt.Sprintf("memory usage %.1f%% at or above threshold %.1f%%", mem, thresholds.MemoryPercent))
	}
	if task.UsesGPU && *snapshot.GPUPercent >= thresholds.GPUPercent {
		reasons = append(reasons, ReasonGPU)
		details = append(details, fmt.Sprintf("GPU usage %.1f%% at or above threshold %.1f%%", *snapshot.GPUPercent, thresholds.GPUPercent))
	}
	if task.EstimatedDuration > thresholds.MaxDuration {
		reasons = append(reasons, ReasonDuration)
		details = append(details, fmt.Sprintf("estimated duration %s exceeds ceiling %s", task.EstimatedDuration, thresholds.MaxDuration))
	}
	if task.RequiresSpecializedService {
		reasons = append(reasons, ReasonSpecialized)
		details = append(details, "task requires a specialized service")
	}

	if len(reasons) > 0 {
		return RoutingDecision{
			Target:            TargetRemote,
			Rationale:         "remote execution: " + strings.Join(details, "; "),
			Reasons:           reasons,
			Confidence:        remoteConfidence,
			EstimatedDuration: remoteDuration(task.EstimatedDuration),
			Alternative:       TargetLocal,
		}
	}

	return RoutingDecision{
		Target:            TargetLocal,
		Rationale:         fmt.Sprintf("local resources available (CPU %.1f%%, memory %.1f%%)", cpu, mem),
		Confidence:        localConfidence(cpu, mem),
		EstimatedDuration: task.EstimatedDuration,
		Alternative:       TargetRemote,
	}
}

// remoteDuration adds the network overhead to d, saturating at the largest
// representable duration
func remoteDuration(d time.Duration) time.Duration {
	if d > math.MaxInt64/remoteOverheadNum*remoteOverheadDen {
		return math.MaxInt64
	}
	return d/remoteOverheadDen*remoteOverheadNum + d%remoteOverheadDen*remoteOverheadNum/remoteOverheadDen
}

func unusableInputs(snapshot ResourceSnapshot, task TaskDescriptor) []string {
	var problems []string
	if !usable(snapshot.CPUPercent) {
		problems = append(problems, "CPU "+describeReading(snapshot.CPUPercent))
	}
	if !usable(snapshot.MemoryPercent) {
		problems = append(problems, "memory "+describeReading(snapshot.MemoryPercent))
	}
	if task.UsesGPU && !usable(snapshot.GPUPercent) {
		problems = append(problems, "GPU "+describeReading(snapshot.GPUPercent))
	}
	if task.EstimatedDuration < 0 {
		problems = append(problems, fmt.Sprintf("negative estimated duration %s", task.EstimatedDuration))
	}
	return problems
}

func describeReading(p *float64) string {
	if p == nil {
		return "reading missing"
	}
	return fmt.Sprintf("reading %v out of range", *p)
}

// localConfidence is higher the more headroom cpu and memory leave, clamped to [0.1, 0.95].
func localConfidence(cpuPercent, memPercent float64) float64 {
	c := 0.4*(1-cpuPercent/100) + 0.4*(1-memPercent/100) + 0.2
	return math.Min(0.95, math.Max(0.1, c))
}
