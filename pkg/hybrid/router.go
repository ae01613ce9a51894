package hybrid

import (
	"context"

	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/metrics"
)

// Router wraps Decide with remote availability, cost estimation,
// logging and metrics. It holds no mutable state and is safe for
// concurrent use.
type Router struct {
	thresholds    Thresholds
	remoteEnabled bool
	costModel     *CostModel
}

// Option configures a Router
type Option func(*Router)

// WithRemoteEnabled sets whether remote execution is available at all.
func WithRemoteEnabled(enabled bool) Option {
	return func(r *Router) {
		r.remoteEnabled = enabled
	}
}

// WithCostModel enables remote cost estimation.
func WithCostModel(m CostModel) Option {
	return func(r *Router) {
		r.costModel = &m
	}
}

// NewRouter creates a router, rejecting malformed thresholds
func NewRouter(thresholds Thresholds, opts ...Option) (*Router, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	r := &Router{
		thresholds:    thresholds,
		remoteEnabled: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Thresholds returns the configured thresholds
func (r *Router) Thresholds() Thresholds {
	return r.thresholds
}

// RemoteEnabled reports whether remote execution is configured
func (r *Router) RemoteEnabled() bool {
	return r.remoteEnabled
}

// Decide routes task. A remote choice that cannot be served because remote
// execution is disabled or the network is down becomes local.
func (r *Router) Decide(ctx context.Context, snapshot ResourceSnapshot, task TaskDescriptor) RoutingDecision {
	d := Decide(snapshot, task, r.thresholds)
	remoteAvailable := r.remoteEnabled && snapshot.NetworkAvailable

	switch {
	case d.Target == TargetRemote && !remoteAvailable:
		d = RoutingDecision{
			Target:            TargetLocal,
			Rationale:         "remote unavailable, running locally despite: " + d.Rationale,
			Reasons:           d.Reasons,
			Confidence:        unavailableConfidence,
			EstimatedDuration: task.EstimatedDuration,
		}
	case d.Target == TargetRemote && r.costModel != nil:
		d.EstimatedCost = r.costModel.Estimate(task)
	case d.Target == TargetLocal && !remoteAvailable:
		d.Alternative = TargetNone
	}

	reasons := make([]string, 0, len(d.Reasons))
	for _, reason := range d.Reasons {
		reasons = append(reasons, string(reason))
	}
	metrics.RecordDecision(string(d.Target), d.FailSafe, reasons)

	if d.FailSafe {
		logger.WarnCtx(ctx, "task %q routed %s (fail-safe): %s", task.Name, d.Target, d.Rationale)
	} else {
		logger.InfoCtx(ctx, "task %q routed %s (confidence %.2f): %s", task.Name, d.Target, d.Confidence, d.Rationale)
	}
	return d
}
