package tool

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps tool names to Tool implementations.
//
// A Registry is constructed once by the owning application and passed into
// workflow construction; there is no package-level instance. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register binds name to t. Registering the same name again replaces the
// previous tool. A nil tool is ignored.
func (r *Registry) Register(name string, t Tool) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
}

// MustRegister is like Register but panics on an empty name or a nil tool.
// Intended for startup wiring where a mistake is a programming error.
func (r *Registry) MustRegister(name string, t Tool) {
	if name == "" {
		panic("tool: empty tool name")
	}
	if t == nil {
		panic(fmt.Sprintf("tool: nil tool registered as %q", name))
	}
	r.Register(name, t)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
