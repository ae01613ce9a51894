package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name     string
	interval time.Duration
	runs     atomic.Int32
	err      error
	panics   bool
}

func (j *countingJob) Name() string            { return j.name }
func (j *countingJob) Interval() time.Duration { return j.interval }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.panics {
		panic("boom")
	}
	return j.err
}

func TestManager_RunsImmediatelyAndOnInterval(t *testing.T) {
	m := NewManager(context.Background())
	job := &countingJob{name: "tick", interval: 10 * time.Millisecond}
	m.Register(job)
	m.Start()

	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Wait()
	stopped := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, job.runs.Load())
}

func TestManager_FailingJobsKeepRunning(t *testing.T) {
	m := NewManager(context.Background())
	failing := &countingJob{name: "failing", interval: 10 * time.Millisecond, err: errors.New("nope")}
	panicking := &countingJob{name: "panicking", interval: 10 * time.Millisecond, panics: true}
	m.Register(failing)
	m.Register(panicking)
	m.Start()
	defer func() {
		m.Stop()
		m.Wait()
	}()

	assert.Eventually(t, func() bool {
		return failing.runs.Load() >= 2 && panicking.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestManager_Register(t *testing.T) {
	m := NewManager(context.Background())
	m.Register(nil)
	m.Register(&countingJob{name: "a", interval: time.Hour})
	m.Start()
	m.Register(&countingJob{name: "late", interval: time.Hour})

	assert.Equal(t, []string{"a"}, m.Jobs())

	m.Stop()
	m.Wait()
}

func TestManager_StopsWithParentContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent)
	m.Register(&countingJob{name: "a", interval: time.Hour})
	m.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop with its parent context")
	}
}
