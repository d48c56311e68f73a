package catalog

import (
	"maps"
	"sort"
	"strings"
	"sync"
)

// Logger is the logging interface used by the catalog.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Thing is one device known to the hub.
type Thing struct {
	ID    string         `json:"id"`
	Meta  map[string]any `json:"meta"`
	State map[string]any `json:"state,omitempty"`
}

// Name returns schema:name from the metadata, or the id.
func (t Thing) Name() string {
	if name, ok := first(t.Meta, "schema:name").(string); ok && name != "" {
		return name
	}
	return t.ID
}

// UPnPListing is the shape handed to templates as "upnp".
type UPnPListing struct {
	Devices []map[string]any `json:"devices"`
}

// Catalog stores things, UPnP devices and recipes.
type Catalog struct {
	mu        sync.RWMutex
	things    map[string]Thing
	devices   map[string]map[string]any
	recipes   []map[string]any
	cookbooks []Cookbook
	logger    Logger
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		things:  make(map[string]Thing),
		devices: make(map[string]map[string]any),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger used for ingest diagnostics.
func (c *Catalog) SetLogger(logger Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

func (c *Catalog) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// PutThing stores or replaces a thing's metadata, keeping its state.
func (c *Catalog) PutThing(id string, meta map[string]any) error {
	if id == "" {
		return ErrEmptyID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.things[id]
	t.ID = id
	t.Meta = maps.Clone(meta)
	c.things[id] = t
	return nil
}

// PutState stores a thing's state. The thing is created if it is unknown.
func (c *Catalog) PutState(id string, state map[string]any) error {
	if id == "" {
		return ErrEmptyID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.things[id]
	t.ID = id
	t.State = maps.Clone(state)
	c.things[id] = t
	return nil
}

// RemoveThing forgets a thing.
func (c *Catalog) RemoveThing(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.things, id)
}

// ThingByID returns a copy of one thing.
func (c *Catalog) ThingByID(id string) (Thing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.things[id]
	if !ok {
		return Thing{}, false
	}
	return cloneThing(t), true
}

// Things returns copies of every thing, ordered by name then id.
func (c *Catalog) Things() []Thing {
	c.mu.RLock()
	out := make([]Thing, 0, len(c.things))
	for _, t := range c.things {
		out = append(out, cloneThing(t))
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ni, nj := out[i].Name(), out[j].Name()
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PutUPnP stores a discovered device under its unique service name.
func (c *Catalog) PutUPnP(usn string, device map[string]any) error {
	if usn == "" {
		return ErrEmptyID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices[usn] = maps.Clone(device)
	return nil
}

// RemoveUPnP forgets a discovered device.
func (c *Catalog) RemoveUPnP(usn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.devices, usn)
}

// UPnP returns the discovered devices with private keys and non-scalar
// values removed, sorted by friendlyName.
func (c *Catalog) UPnP() UPnPListing {
	c.mu.RLock()
	rows := make([]map[string]any, 0, len(c.devices))
	for _, device := range c.devices {
		row := make(map[string]any, len(device))
		for key, value := range device {
			if strings.HasPrefix(key, "_") || !isScalar(value) {
				continue
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	c.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return friendlyName(rows[i]) < friendlyName(rows[j])
	})
	return UPnPListing{Devices: rows}
}

// Counts returns how many things, recipes and UPnP devices are stored.
func (c *Catalog) Counts() (things, recipes, devices int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.things), len(c.recipes), len(c.devices)
}

func friendlyName(row map[string]any) string {
	name, _ := row["friendlyName"].(string) //nolint:errcheck // missing names sort first
	return name
}

// isScalar reports whether v is a string or a number.
func isScalar(v any) bool {
	switch v.(type) {
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case interface{ Float64() (float64, error) }:
		return true
	}
	return false
}

func cloneThing(t Thing) Thing {
	return Thing{ID: t.ID, Meta: maps.Clone(t.Meta), State: maps.Clone(t.State)}
}

// first returns the first value of a metadata key that may hold a list.
func first(meta map[string]any, key string) any {
	switch v := meta[key].(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		return v[0]
	case []string:
		if len(v) == 0 {
			return nil
		}
		return v[0]
	default:
		return v
	}
}

// list returns a metadata key as a list of strings.
func list(meta map[string]any, key string) []string {
	switch v := meta[key].(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
