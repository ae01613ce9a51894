package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hybridmcp/internal/model"
	"hybridmcp/pkg/interfaces"
)

// ExecutionStore bounded in-memory execution log
type ExecutionStore struct {
	mu      sync.RWMutex
	records []*model.ExecutionRecord
	max     int
}

// NewExecutionStore keeps at most max records, dropping the oldest
func NewExecutionStore(max int) *ExecutionStore {
	if max <= 0 {
		max = 1000
	}
	return &ExecutionStore{max: max}
}

// Create appends a copy of record
func (s *ExecutionStore) Create(_ context.Context, record *model.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *record
	s.records = append(s.records, &r)
	if len(s.records) > s.max {
		s.records = s.records[len(s.records)-s.max:]
	}
	return nil
}

// Get retrieves a record by id
func (s *ExecutionStore) Get(_ context.Context, id string) (*model.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			out := *r
			return &out, nil
		}
	}
	return nil, fmt.Errorf("execution %s: %w", id, interfaces.ErrNotFound)
}

// List returns matching records, newest first
func (s *ExecutionStore) List(_ context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ExecutionRecord, 0)
	for _, r := range s.records {
		if filter.TaskName != "" && r.TaskName != filter.TaskName {
			continue
		}
		if filter.Location != "" && r.Location != filter.Location {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if !filter.Since.IsZero() && r.CreatedAt.Before(filter.Since) {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*model.ExecutionRecord{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// DeleteOlderThan removes records created before t
func (s *ExecutionStore) DeleteOlderThan(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.CreatedAt.Before(t) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// Close is a no-op
func (s *ExecutionStore) Close() error {
	return nil
}
