package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSampler struct {
	mu    sync.Mutex
	calls int
	snap  hybrid.ResourceSnapshot
	errs  []error // returned by successive calls, then nil
	gate  chan struct{}
}

func (c *countingSampler) Sample(ctx context.Context) (hybrid.ResourceSnapshot, error) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return hybrid.ResourceSnapshot{}, err
	}
	return c.snap, nil
}

func (c *countingSampler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snaps := []hybrid.ResourceSnapshot{
		{CPUPercent: hybrid.Percent(20), MemoryPercent: hybrid.Percent(40), SampledAt: base.Add(2 * time.Second)},
		{CPUPercent: hybrid.Percent(60), MemoryPercent: hybrid.Percent(80), GPUPercent: hybrid.Percent(50), SampledAt: base.Add(time.Second)},
		{MemoryPercent: hybrid.Percent(60), SampledAt: base},
	}

	s := Summarize(snaps)
	assert.Equal(t, 3, s.Samples)
	assert.InDelta(t, 40, s.AvgCPU, 1e-9)
	assert.InDelta(t, 60, s.MaxCPU, 1e-9)
	assert.InDelta(t, 60, s.AvgMemory, 1e-9)
	assert.InDelta(t, 80, s.MaxMemory, 1e-9)
	require.NotNil(t, s.AvgGPU)
	assert.InDelta(t, 50, *s.AvgGPU, 1e-9)
	assert.True(t, s.LocalPreferred)
	assert.Equal(t, base, s.From)
	assert.Equal(t, base.Add(2*time.Second), s.To)

	empty := Summarize(nil)
	assert.Zero(t, empty.Samples)
	assert.Nil(t, empty.AvgGPU)
}

func TestLocalPreferred(t *testing.T) {
	assert.True(t, LocalPreferred(hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(69.9), MemoryPercent: hybrid.Percent(10)}))
	assert.False(t, LocalPreferred(hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(70), MemoryPercent: hybrid.Percent(10)}))
	assert.False(t, LocalPreferred(hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(10)}))
}

func TestParseGPUUtilization(t *testing.T) {
	v, err := parseGPUUtilization([]byte("30\n 50 \n\n"))
	require.NoError(t, err)
	assert.InDelta(t, 40, v, 1e-9)

	_, err = parseGPUUtilization([]byte(""))
	assert.Error(t, err)

	_, err = parseGPUUtilization([]byte("N/A\n"))
	assert.Error(t, err)
}

func TestCachingSampler(t *testing.T) {
	inner := &countingSampler{snap: hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(10)}}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCachingSampler(inner, 5*time.Second)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.Sample(ctx)
	require.NoError(t, err)
	_, _ = c.Sample(ctx)
	assert.Equal(t, 1, inner.count())

	now = now.Add(6 * time.Second)
	snap, err := c.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.count())
	assert.Equal(t, now, snap.SampledAt)
}

func TestCachingSampler_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	inner := &countingSampler{snap: hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(10), MemoryPercent: hybrid.Percent(20)}}
	c := NewCachingSampler(inner, time.Minute)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Sample(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	snap, err := c.Sample(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.CPUPercent)
	require.NotNil(t, snap.MemoryPercent)
	assert.Equal(t, 10.0, *snap.CPUPercent)

	d := hybrid.Decide(snap, hybrid.TaskDescriptor{RequiresSpecializedService: true}, hybrid.DefaultThresholds())
	assert.Equal(t, hybrid.TargetRemote, d.Target)
	assert.False(t, d.FailSafe)
}

func TestCachingSampler_FailedSamplesAreRetaken(t *testing.T) {
	inner := &countingSampler{
		snap: hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(10), MemoryPercent: hybrid.Percent(20)},
		errs: []error{context.DeadlineExceeded, errors.New("cpu: no counters")},
	}
	c := NewCachingSampler(inner, time.Minute)
	ctx := context.Background()

	_, err := c.Sample(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, err = c.Sample(ctx)
	assert.EqualError(t, err, "cpu: no counters")

	snap, err := c.Sample(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snap.CPUPercent)
	_, _ = c.Sample(ctx)
	assert.Equal(t, 3, inner.count())
}

func TestCachingSampler_SharesInFlightSample(t *testing.T) {
	inner := &countingSampler{
		snap: hybrid.ResourceSnapshot{CPUPercent: hybrid.Percent(10), MemoryPercent: hybrid.Percent(20)},
		gate: make(chan struct{}),
	}
	c := NewCachingSampler(inner, time.Minute)

	// a waiter that gives up does not cancel the shared sample
	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Sample(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var wg sync.WaitGroup
	results := make([]hybrid.ResourceSnapshot, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Sample(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	assert.Equal(t, 1, inner.count())
	for _, snap := range results {
		require.NotNil(t, snap.CPUPercent)
		assert.Equal(t, 10.0, *snap.CPUPercent)
	}
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()
	sampler := &StaticSampler{Snapshot: hybrid.ResourceSnapshot{
		CPUPercent:       hybrid.Percent(30),
		MemoryPercent:    hybrid.Percent(50),
		NetworkAvailable: true,
	}}
	agg := NewAggregator(sampler, memory.NewHistory(2))

	for i := 0; i < 3; i++ {
		_, err := agg.Collect(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, agg.HistorySize(ctx))

	status, err := agg.Status(ctx, 0)
	require.NoError(t, err)
	assert.True(t, status.LocalPreferred)
	assert.Equal(t, 2, status.Summary.Samples)
	assert.InDelta(t, 30, status.Summary.AvgCPU, 1e-9)
}

func TestAggregator_PartialSample(t *testing.T) {
	ctx := context.Background()
	sampler := &StaticSampler{
		Snapshot: hybrid.ResourceSnapshot{MemoryPercent: hybrid.Percent(50)},
		Err:      errors.New("cpu: unavailable"),
	}
	agg := NewAggregator(sampler, memory.NewHistory(10))

	snap, err := agg.Collect(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.CPUPercent)
	assert.Equal(t, 1, agg.HistorySize(ctx))

	status, err := agg.Status(ctx, 10)
	require.NoError(t, err)
	assert.False(t, status.LocalPreferred)
}
