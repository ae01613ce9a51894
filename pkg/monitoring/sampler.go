package monitoring

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"hybridmcp/pkg/hybrid"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"golang.org/x/sync/singleflight"
)

// Sampler produces resource snapshots. Readings that cannot be taken are
// left nil and reported in the returned error; the snapshot is still usable.
type Sampler interface {
	Sample(ctx context.Context) (hybrid.ResourceSnapshot, error)
}

// GPUReader reads GPU utilization percent
type GPUReader func(ctx context.Context) (float64, error)

// SystemSampler samples the host with gopsutil
type SystemSampler struct {
	cpuWindow time.Duration
	gpu       GPUReader
	now       func() time.Time
}

// NewSystemSampler creates a host sampler. gpu may be nil when no GPU is monitored.
func NewSystemSampler(cpuWindow time.Duration, gpu GPUReader) *SystemSampler {
	return &SystemSampler{
		cpuWindow: cpuWindow,
		gpu:       gpu,
		now:       time.Now,
	}
}

// Sample reads cpu, memory, network and optionally gpu
func (s *SystemSampler) Sample(ctx context.Context) (hybrid.ResourceSnapshot, error) {
	snap := hybrid.ResourceSnapshot{SampledAt: s.now()}
	var errs []error

	if pct, err := cpu.PercentWithContext(ctx, s.cpuWindow, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(pct) > 0 {
		snap.CPUPercent = hybrid.Percent(pct[0])
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		snap.MemoryPercent = hybrid.Percent(vm.UsedPercent)
	}

	if up, err := networkUp(ctx); err != nil {
		errs = append(errs, fmt.Errorf("network: %w", err))
	} else {
		snap.NetworkAvailable = up
	}

	if s.gpu != nil {
		if pct, err := s.gpu(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gpu: %w", err))
		} else {
			snap.GPUPercent = hybrid.Percent(pct)
		}
	}

	return snap, errors.Join(errs...)
}

// networkUp reports whether any non-loopback interface is up
func networkUp(ctx context.Context) (bool, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, iface := range ifaces {
		var up, loopback bool
		for _, flag := range iface.Flags {
			switch flag {
			case "up":
				up = true
			case "loopback":
				loopback = true
			}
		}
		if up && !loopback {
			return true, nil
		}
	}
	return false, nil
}

// NvidiaSMI reads the average utilization of all GPUs through nvidia-smi
func NvidiaSMI(ctx context.Context) (float64, error) {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=utilization.gpu", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return 0, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseGPUUtilization(out)
}

func parseGPUUtilization(out []byte) (float64, error) {
	var sum float64
	var n int
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("parse gpu utilization %q: %w", line, err)
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, errors.New("no gpu reported")
	}
	return sum / float64(n), nil
}

// StaticSampler returns a fixed snapshot
type StaticSampler struct {
	Snapshot hybrid.ResourceSnapshot
	Err      error
}

// Sample returns the fixed snapshot stamped with the current time
func (s *StaticSampler) Sample(ctx context.Context) (hybrid.ResourceSnapshot, error) {
	snap := s.Snapshot
	if snap.SampledAt.IsZero() {
		snap.SampledAt = time.Now()
	}
	return snap, s.Err
}

// sampleTimeout bounds one shared sample taken on behalf of all waiting callers
const sampleTimeout = 5 * time.Second

// CachingSampler reuses the last snapshot while it is younger than maxAge,
// keeping per-request routing off the cpu measurement window. Concurrent
// callers share one in-flight sample; a caller whose ctx ends stops waiting
// without affecting the others.
type CachingSampler struct {
	next   Sampler
	maxAge time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu   sync.Mutex
	last hybrid.ResourceSnapshot
	err  error
}

// NewCachingSampler wraps next
func NewCachingSampler(next Sampler, maxAge time.Duration) *CachingSampler {
	return &CachingSampler{next: next, maxAge: maxAge, now: time.Now}
}

type sampleResult struct {
	snap hybrid.ResourceSnapshot
	err  error
}

// Sample returns the cached snapshot or takes a fresh one
func (c *CachingSampler) Sample(ctx context.Context) (hybrid.ResourceSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return hybrid.ResourceSnapshot{}, err
	}

	c.mu.Lock()
	if !staleAfter(c.last, c.maxAge, c.now()) {
		last, err := c.last, c.err
		c.mu.Unlock()
		return last, err
	}
	c.mu.Unlock()

	ch := c.group.DoChan("sample", func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sampleTimeout)
		defer cancel()

		snap, err := c.next.Sample(sctx)
		if snap.SampledAt.IsZero() {
			snap.SampledAt = c.now()
		}
		if cacheable(snap, err) {
			c.mu.Lock()
			c.last, c.err = snap, err
			c.mu.Unlock()
		}
		return sampleResult{snap: snap, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return hybrid.ResourceSnapshot{}, ctx.Err()
	case res := <-ch:
		r := res.Val.(sampleResult)
		return r.snap, r.err
	}
}

// cacheable reports whether a sample may be served to later callers. A
// partial sample is kept as long as the cpu and memory readings exist.
func cacheable(snap hybrid.ResourceSnapshot, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return snap.CPUPercent != nil && snap.MemoryPercent != nil
}
