package hybrid

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func routingParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 100
	return parameters
}

// TestProperty_LocalUnlessTriggered checks that valid readings under every
// threshold, with no task-level trigger, always route locally.
func TestProperty_LocalUnlessTriggered(t *testing.T) {
	properties := gopter.NewProperties(routingParameters())
	th := DefaultThresholds()

	properties.Property("below all thresholds routes local", prop.ForAll(
		func(cpu, mem, gpu float64, seconds int, usesGPU bool) bool {
			d := Decide(ResourceSnapshot{
				CPUPercent:    Percent(cpu),
				MemoryPercent: Percent(mem),
				GPUPercent:    Percent(gpu),
			}, TaskDescriptor{
				EstimatedDuration: time.Duration(seconds) * time.Second,
				UsesGPU:           usesGPU,
			}, th)
			return d.Target == TargetLocal && !d.FailSafe && len(d.Reasons) == 0
		},
		gen.Float64Range(0, 79.99),
		gen.Float64Range(0, 84.99),
		gen.Float64Range(0, 89.99),
		gen.IntRange(0, 300),
		gen.Bool(),
	))

	properties.Property("any trigger routes remote", prop.ForAll(
		func(cpu, mem float64, specialized bool) bool {
			d := Decide(ResourceSnapshot{
				CPUPercent:    Percent(cpu),
				MemoryPercent: Percent(mem),
			}, TaskDescriptor{RequiresSpecializedService: specialized}, th)

			triggered := cpu >= th.CPUPercent || mem >= th.MemoryPercent || specialized
			return (d.Target == TargetRemote) == triggered
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestProperty_Deterministic checks that identical inputs give identical decisions.
func TestProperty_Deterministic(t *testing.T) {
	properties := gopter.NewProperties(routingParameters())
	th := DefaultThresholds()

	properties.Property("decide is idempotent", prop.ForAll(
		func(cpu, mem, gpu float64, seconds int, usesGPU, specialized bool) bool {
			snap := ResourceSnapshot{
				CPUPercent:    Percent(cpu),
				MemoryPercent: Percent(mem),
				GPUPercent:    Percent(gpu),
			}
			task := TaskDescriptor{
				EstimatedDuration:          time.Duration(seconds) * time.Second,
				UsesGPU:                    usesGPU,
				RequiresSpecializedService: specialized,
			}
			return reflect.DeepEqual(Decide(snap, task, th), Decide(snap, task, th))
		},
		gen.Float64Range(-50, 150),
		gen.Float64Range(-50, 150),
		gen.Float64Range(-50, 150),
		gen.IntRange(-100, 1000),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestProperty_MonotonicLoad checks that more load never moves a remote task back to local.
func TestProperty_MonotonicLoad(t *testing.T) {
	properties := gopter.NewProperties(routingParameters())
	th := DefaultThresholds()

	properties.Property("raising cpu keeps remote decisions remote", prop.ForAll(
		func(cpu, extra, mem float64) bool {
			higher := cpu + extra
			if higher > 100 {
				higher = 100
			}
			before := Decide(ResourceSnapshot{CPUPercent: Percent(cpu), MemoryPercent: Percent(mem)}, TaskDescriptor{}, th)
			after := Decide(ResourceSnapshot{CPUPercent: Percent(higher), MemoryPercent: Percent(mem)}, TaskDescriptor{}, th)
			return before.Target != TargetRemote || after.Target == TargetRemote
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.Property("confidence stays within bounds", prop.ForAll(
		func(cpu, mem float64) bool {
			d := Decide(ResourceSnapshot{CPUPercent: Percent(cpu), MemoryPercent: Percent(mem)}, TaskDescriptor{}, th)
			return d.Confidence >= 0.1 && d.Confidence <= 0.95
		},
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

// TestProperty_UnusableReadingsFailSafe checks readings outside [0,100] always route local.
func TestProperty_UnusableReadingsFailSafe(t *testing.T) {
	properties := gopter.NewProperties(routingParameters())
	th := DefaultThresholds()

	properties.Property("out-of-range cpu is fail-safe local", prop.ForAll(
		func(cpu float64, specialized bool) bool {
			d := Decide(ResourceSnapshot{CPUPercent: Percent(cpu), MemoryPercent: Percent(10)},
				TaskDescriptor{RequiresSpecializedService: specialized}, th)
			return d.Target == TargetLocal && d.FailSafe
		},
		gen.OneGenOf(gen.Float64Range(-1000, -0.001), gen.Float64Range(100.001, 1000)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
