package monitoring

import (
	"time"

	"hybridmcp/pkg/hybrid"
)

// localPreferredPercent latest cpu and memory must both be under this for local work to be preferred
const localPreferredPercent = 70.0

// Summary aggregate of a window of resource snapshots
type Summary struct {
	Samples        int       `json:"samples"`
	AvgCPU         float64   `json:"avg_cpu_percent"`
	MaxCPU         float64   `json:"max_cpu_percent"`
	AvgMemory      float64   `json:"avg_memory_percent"`
	MaxMemory      float64   `json:"max_memory_percent"`
	AvgGPU         *float64  `json:"avg_gpu_percent,omitempty"`
	LocalPreferred bool      `json:"local_preferred"`
	From           time.Time `json:"from,omitempty"`
	To             time.Time `json:"to,omitempty"`
}

// Status point-in-time system status
type Status struct {
	Resources      hybrid.ResourceSnapshot `json:"resources"`
	LocalPreferred bool                    `json:"local_preferred"`
	Summary        Summary                 `json:"summary"`
}
