package extension

import (
	"maps"
	"slices"
	"sync"
)

// Builder is the composition context while it is still mutable.
//
// A key holds one namespace value; writing an existing key replaces it.
type Builder struct {
	mu     sync.Mutex
	values map[string]any
	frozen bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]any)}
}

// Set stores value under namespace.
func (b *Builder) Set(namespace string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrFrozen
	}
	b.values[namespace] = value
	return nil
}

// Get returns the value stored under namespace.
func (b *Builder) Get(namespace string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[namespace]
	return v, ok
}

// Freeze ends mutation and returns the read-only context. Later calls
// return equivalent contexts.
func (b *Builder) Freeze() *Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen = true
	return &Context{values: maps.Clone(b.values)}
}

// Context is the frozen composition context.
//
// Values themselves are shared, not copied; extensions should store
// accessors and immutable data.
type Context struct {
	values map[string]any
}

// Get returns the value stored under namespace.
func (c *Context) Get(namespace string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[namespace]
	return v, ok
}

// Namespaces returns the stored keys, sorted.
func (c *Context) Namespaces() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.values))
}

// Values returns a shallow copy of every namespace.
func (c *Context) Values() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return maps.Clone(c.values)
}
