// Package plugin hosts optional feature modules mounted under the API.
package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hybridmcp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Metadata describes a plugin
type Metadata struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Requires    []string `json:"requires,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// Plugin feature module with its own routes
type Plugin interface {
	Metadata() Metadata
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	RegisterRoutes(rg *gin.RouterGroup)
}

// Registry tracks registered plugins and which of them are loaded
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	loaded  map[string]bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		loaded:  make(map[string]bool),
	}
}

// Register adds a plugin. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Metadata().Name
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	r.plugins[name] = p
	return nil
}

// Load initializes every registered plugin that is enabled in its metadata
// and listed in enabled. A plugin that fails to initialize is skipped.
func (r *Registry) Load(ctx context.Context, enabled []string) []string {
	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		want[name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.sortedNames() {
		p := r.plugins[name]
		if !p.Metadata().Enabled || !want[name] {
			logger.InfoCtx(ctx, "plugin disabled: %s", name)
			continue
		}
		if err := p.Initialize(ctx); err != nil {
			logger.ErrorCtx(ctx, "failed to initialize plugin %s: %v", name, err)
			continue
		}
		r.loaded[name] = true
		logger.InfoCtx(ctx, "loaded plugin: %s", name)
	}

	loaded := make([]string, 0, len(r.loaded))
	for _, name := range r.sortedNames() {
		if r.loaded[name] {
			loaded = append(loaded, name)
		}
	}
	return loaded
}

// Get returns a loaded plugin
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.loaded[name] {
		return nil, false
	}
	return r.plugins[name], true
}

// All returns the loaded plugins sorted by name
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.loaded))
	for _, name := range r.sortedNames() {
		if r.loaded[name] {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// Info metadata plus load state for every registered plugin
func (r *Registry) Info() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.plugins))
	for _, name := range r.sortedNames() {
		md := r.plugins[name].Metadata()
		md.Enabled = r.loaded[name]
		out = append(out, md)
	}
	return out
}

// RegisterRoutes mounts the routes of every loaded plugin
func (r *Registry) RegisterRoutes(rg *gin.RouterGroup) {
	for _, p := range r.All() {
		p.RegisterRoutes(rg)
	}
}

// Shutdown shuts down loaded plugins. Errors are logged.
func (r *Registry) Shutdown(ctx context.Context) {
	for _, p := range r.All() {
		name := p.Metadata().Name
		if err := p.Shutdown(ctx); err != nil {
			logger.ErrorCtx(ctx, "error shutting down plugin %s: %v", name, err)
			continue
		}
		logger.InfoCtx(ctx, "shutdown plugin: %s", name)
	}

	r.mu.Lock()
	r.loaded = make(map[string]bool)
	r.mu.Unlock()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
