package monitoring

import (
	"context"
	"time"

	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"
)

// Aggregator samples resources into a bounded history and summarizes it
type Aggregator struct {
	sampler Sampler
	history interfaces.SnapshotHistory
}

// NewAggregator creates a new aggregator
func NewAggregator(sampler Sampler, history interfaces.SnapshotHistory) *Aggregator {
	return &Aggregator{sampler: sampler, history: history}
}

// Collect samples once and appends the snapshot to the history
func (a *Aggregator) Collect(ctx context.Context) (hybrid.ResourceSnapshot, error) {
	snap, err := a.sampler.Sample(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "resource sampling incomplete: %v", err)
	}
	publish(snap)

	if err := a.history.Append(ctx, snap); err != nil {
		logger.ErrorCtx(ctx, "failed to record resource snapshot: %v", err)
		return snap, err
	}
	return snap, nil
}

// Status samples now and summarizes the last n history entries
func (a *Aggregator) Status(ctx context.Context, n int) (*Status, error) {
	snap, _ := a.sampler.Sample(ctx)
	publish(snap)

	recent, err := a.history.Recent(ctx, n)
	if err != nil {
		return nil, err
	}

	return &Status{
		Resources:      snap,
		LocalPreferred: LocalPreferred(snap),
		Summary:        Summarize(recent),
	}, nil
}

// HistorySize returns the number of stored snapshots
func (a *Aggregator) HistorySize(ctx context.Context) int {
	n, err := a.history.Len(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read history size: %v", err)
		return 0
	}
	return n
}

// Summarize aggregates snapshots ordered newest first. Missing readings are skipped.
func Summarize(snapshots []hybrid.ResourceSnapshot) Summary {
	s := Summary{Samples: len(snapshots)}
	if len(snapshots) == 0 {
		return s
	}

	var cpuSum, memSum, gpuSum float64
	var cpuN, memN, gpuN int
	for _, snap := range snapshots {
		if snap.CPUPercent != nil {
			cpuSum += *snap.CPUPercent
			cpuN++
			if *snap.CPUPercent > s.MaxCPU {
				s.MaxCPU = *snap.CPUPercent
			}
		}
		if snap.MemoryPercent != nil {
			memSum += *snap.MemoryPercent
			memN++
			if *snap.MemoryPercent > s.MaxMemory {
				s.MaxMemory = *snap.MemoryPercent
			}
		}
		if snap.GPUPercent != nil {
			gpuSum += *snap.GPUPercent
			gpuN++
		}
		if s.From.IsZero() || snap.SampledAt.Before(s.From) {
			s.From = snap.SampledAt
		}
		if snap.SampledAt.After(s.To) {
			s.To = snap.SampledAt
		}
	}
	if cpuN > 0 {
		s.AvgCPU = cpuSum / float64(cpuN)
	}
	if memN > 0 {
		s.AvgMemory = memSum / float64(memN)
	}
	if gpuN > 0 {
		avg := gpuSum / float64(gpuN)
		s.AvgGPU = &avg
	}
	s.LocalPreferred = LocalPreferred(snapshots[0])
	return s
}

// LocalPreferred reports whether cpu and memory leave comfortable headroom
func LocalPreferred(snap hybrid.ResourceSnapshot) bool {
	return snap.CPUPercent != nil && snap.MemoryPercent != nil &&
		*snap.CPUPercent < localPreferredPercent && *snap.MemoryPercent < localPreferredPercent
}

func publish(snap hybrid.ResourceSnapshot) {
	if snap.CPUPercent != nil {
		metrics.SetResourceUsage("cpu", *snap.CPUPercent)
	}
	if snap.MemoryPercent != nil {
		metrics.SetResourceUsage("memory", *snap.MemoryPercent)
	}
	if snap.GPUPercent != nil {
		metrics.SetResourceUsage("gpu", *snap.GPUPercent)
	}
}

// staleAfter reports whether a snapshot is too old to route on
func staleAfter(snap hybrid.ResourceSnapshot, maxAge time.Duration, now time.Time) bool {
	return snap.SampledAt.IsZero() || now.Sub(snap.SampledAt) > maxAge
}
