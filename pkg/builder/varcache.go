package builder

import (
	"maps"
	"sync"

	"github.com/disbotter/disbotter/pkg/domain"
)

// VarCache maps ports to the generated variable already holding their value.
// One cache lives for one compile unit and is shared by reference between
// every builder and recursive compile of that unit. Safe for concurrent use.
type VarCache struct {
	mu   sync.RWMutex
	vars map[domain.PortIdentifier]string
}

// NewVarCache creates an empty cache.
func NewVarCache() *VarCache {
	return &VarCache{vars: make(map[domain.PortIdentifier]string)}
}

// Get returns the variable bound to port.
func (c *VarCache) Get(port domain.PortIdentifier) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[port]
	return v, ok
}

// Has reports whether port is bound.
func (c *VarCache) Has(port domain.PortIdentifier) bool {
	_, ok := c.Get(port)
	return ok
}

// Set binds port to name, replacing any previous binding.
func (c *VarCache) Set(port domain.PortIdentifier, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[port] = name
}

// GetOrSet returns the existing binding for port, or binds and returns the
// result of alloc. alloc runs under the cache lock and must not touch the cache.
func (c *VarCache) GetOrSet(port domain.PortIdentifier, alloc func() string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.vars[port]; ok {
		return v
	}
	v := alloc()
	c.vars[port] = v
	return v
}

// Alias copies the binding of from onto to. It reports false if from is unbound.
func (c *VarCache) Alias(from, to domain.PortIdentifier) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vars[from]
	if !ok {
		return false
	}
	c.vars[to] = v
	return true
}

// Clear drops every binding.
func (c *VarCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.vars)
}

// Len returns the number of bindings.
func (c *VarCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vars)
}

// Snapshot returns a full copy of the current bindings.
func (c *VarCache) Snapshot() map[domain.PortIdentifier]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.vars)
}

// Restore replaces the live bindings with snap.
func (c *VarCache) Restore(snap map[domain.PortIdentifier]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.vars)
	maps.Copy(c.vars, snap)
}
