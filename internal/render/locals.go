package render

import (
	"maps"
	"regexp"
	"sync"
)

// identifier matches names usable as template functions.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Producer computes a local on first use.
type Producer func() any

// Locals is the per-request data handed to phase two.
//
// A key is either a value (reached as .key), a function, or a lazy
// producer (both called as key). Setting a key replaces any earlier entry
// of another kind.
type Locals struct {
	mu        sync.Mutex
	values    map[string]any
	funcs     map[string]any
	producers map[string]Producer
	computed  map[string]any
}

// NewLocals returns empty locals.
func NewLocals() *Locals {
	return &Locals{
		values:    make(map[string]any),
		funcs:     make(map[string]any),
		producers: make(map[string]Producer),
		computed:  make(map[string]any),
	}
}

// Set stores a value.
func (l *Locals) Set(key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clear(key)
	l.values[key] = value
}

// SetFunc stores a template function. key must be an identifier.
func (l *Locals) SetFunc(key string, fn any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clear(key)
	l.funcs[key] = fn
}

// SetLazy stores a producer that runs at most once, when first referenced.
// key must be an identifier.
func (l *Locals) SetLazy(key string, p Producer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clear(key)
	l.producers[key] = p
}

// Merge stores every entry of values as a plain value.
func (l *Locals) Merge(values map[string]any) {
	for k, v := range values {
		l.Set(k, v)
	}
}

// Get returns the local named key, running its producer if needed.
func (l *Locals) Get(key string) (any, bool) {
	l.mu.Lock()
	if v, ok := l.values[key]; ok {
		l.mu.Unlock()
		return v, true
	}
	if fn, ok := l.funcs[key]; ok {
		l.mu.Unlock()
		return fn, true
	}
	_, ok := l.producers[key]
	l.mu.Unlock()
	if !ok {
		return nil, false
	}
	return l.produce(key), true
}

// Data returns a copy of the plain values.
func (l *Locals) Data() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.values)
}

// FuncMap returns functions and producers keyed by name. Entries whose
// name is not an identifier are left out.
func (l *Locals) FuncMap() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]any, len(l.funcs)+len(l.producers))
	for k, fn := range l.funcs {
		if identifier.MatchString(k) {
			out[k] = fn
		}
	}
	for k := range l.producers {
		if identifier.MatchString(k) {
			key := k
			out[key] = func() any { return l.produce(key) }
		}
	}
	return out
}

func (l *Locals) produce(key string) any {
	l.mu.Lock()
	if v, ok := l.computed[key]; ok {
		l.mu.Unlock()
		return v
	}
	p := l.producers[key]
	l.mu.Unlock()

	if p == nil {
		return nil
	}
	v := p()

	l.mu.Lock()
	l.computed[key] = v
	l.mu.Unlock()
	return v
}

func (l *Locals) clear(key string) {
	delete(l.values, key)
	delete(l.funcs, key)
	delete(l.producers, key)
	delete(l.computed, key)
}
