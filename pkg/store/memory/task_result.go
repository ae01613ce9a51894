package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"
)

type taskItem struct {
	task      model.Task
	expiresAt time.Time
}

// TaskResultStore in-memory async task results
type TaskResultStore struct {
	mu    sync.RWMutex
	items map[string]*taskItem
}

// NewTaskResultStore creates task result store
func NewTaskResultStore() *TaskResultStore {
	return &TaskResultStore{items: make(map[string]*taskItem)}
}

// Save stores a copy of task
func (s *TaskResultStore) Save(_ context.Context, task *model.Task, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[task.ID] = &taskItem{task: *task, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get retrieves a task
func (s *TaskResultStore) Get(_ context.Context, taskID string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[taskID]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, fmt.Errorf("task %s: %w", taskID, interfaces.ErrNotFound)
	}
	task := item.task
	return &task, nil
}
