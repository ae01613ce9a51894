// Package memory provides in-process stores used when Redis or a database is not configured.
package memory

import (
	"context"
	"sync"

	"hybridmcp/pkg/hybrid"
)

// History fixed-size ring of resource snapshots
type History struct {
	mu    sync.RWMutex
	items []hybrid.ResourceSnapshot
	next  int
	full  bool
}

// NewHistory creates a ring holding at most size snapshots
func NewHistory(size int) *History {
	if size <= 0 {
		size = 100
	}
	return &History{items: make([]hybrid.ResourceSnapshot, size)}
}

// Append stores the snapshot, overwriting the oldest when full
func (h *History) Append(_ context.Context, snapshot hybrid.ResourceSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.next] = snapshot
	h.next = (h.next + 1) % len(h.items)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

// Recent returns up to n snapshots, newest first
func (h *History) Recent(_ context.Context, n int) ([]hybrid.ResourceSnapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	size := h.size()
	if n <= 0 || n > size {
		n = size
	}
	out := make([]hybrid.ResourceSnapshot, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out, nil
}

// Len returns the number of stored snapshots
func (h *History) Len(_ context.Context) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size(), nil
}

func (h *History) size() int {
	if h.full {
		return len(h.items)
	}
	return h.next
}
