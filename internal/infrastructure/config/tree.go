package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// pathSeparator splits tree paths such as "webserver/port".
const pathSeparator = "/"

// Tree is a nested configuration mapping with typed leaves.
//
// Leaves are bool, int, float64, string, []any, map[string]any or nil
// (unset). A Tree returned by Store.Load is never mutated; every accessor
// that hands out a container returns a copy.
type Tree struct {
	root map[string]any
}

// NewTree builds a Tree from a plain mapping, normalising numeric and
// container types. The input is copied.
func NewTree(m map[string]any) Tree {
	if m == nil {
		return Tree{root: map[string]any{}}
	}
	root, _ := normalize(m).(map[string]any) //nolint:errcheck // normalize preserves maps
	return Tree{root: root}
}

// Get returns the value at path. An empty path returns the whole tree.
func (t Tree) Get(path string) (any, bool) {
	if path == "" {
		return t.root, t.root != nil
	}
	var cur any = t.root
	for _, seg := range strings.Split(path, pathSeparator) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// IsSet reports whether path exists and holds a non-nil, non-empty value.
func (t Tree) IsSet(path string) bool {
	v, ok := t.Get(path)
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// String returns the leaf at path as a string, or "" if unset.
func (t Tree) String(path string) string {
	v, ok := t.Get(path)
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Int returns the leaf at path as an int, or 0 if unset or non-numeric.
func (t Tree) Int(path string) int {
	v, _ := t.Get(path)
	return cast.ToInt(v)
}

// Float returns the leaf at path as a float64, or 0 if unset or non-numeric.
func (t Tree) Float(path string) float64 {
	v, _ := t.Get(path)
	return cast.ToFloat64(v)
}

// Bool reports whether the leaf at path is truthy.
//
// Booleans are returned as-is, numbers are true when nonzero, and strings
// are parsed as booleans where possible and otherwise true when non-empty.
func (t Tree) Bool(path string) bool {
	v, ok := t.Get(path)
	if !ok || v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		if b, err := cast.ToBoolE(x); err == nil {
			return b
		}
		return x != ""
	default:
		return true
	}
}

// Strings returns the sequence leaf at path as strings.
func (t Tree) Strings(path string) []string {
	v, ok := t.Get(path)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, cast.ToString(item))
	}
	return out
}

// Map returns a copy of the mapping at path, or nil if path is not a mapping.
func (t Tree) Map(path string) map[string]any {
	v, ok := t.Get(path)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out, _ := normalize(m).(map[string]any) //nolint:errcheck // normalize preserves maps
	return out
}

// Raw returns a deep copy of the whole tree.
func (t Tree) Raw() map[string]any {
	if out := t.Map(""); out != nil {
		return out
	}
	return map[string]any{}
}

// Clone returns an independent copy of the tree.
func (t Tree) Clone() Tree {
	return NewTree(t.root)
}

// Sanitized returns a copy of the tree without the secrets and keys
// namespaces. This is the only form of the settings exposed to templates.
func (t Tree) Sanitized() map[string]any {
	out := t.Raw()
	delete(out, "secrets")
	delete(out, "keys")
	return out
}

// Decode copies the subtree at path into out using yaml struct tags.
//
// Parameters:
//   - path: Subtree to decode ("" for the whole tree)
//   - out: Pointer to the destination struct
//
// Returns:
//   - error: If the subtree cannot be decoded into out
func (t Tree) Decode(path string, out any) error {
	v, ok := t.Get(path)
	if !ok {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("creating decoder for %q: %w", path, err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %q: %w", path, err)
	}
	return nil
}

// Merge returns a new Tree with overlay deep-merged over t.
//
// Mappings merge key by key. Any other overlay value replaces the base
// value, except nil, which leaves the base value in place.
func (t Tree) Merge(overlay Tree) Tree {
	out := t.Raw()
	merge(out, overlay.root)
	return Tree{root: out}
}

// merge deep-merges src into dst in place.
func merge(dst, src map[string]any) {
	for key, sv := range src {
		if sv == nil {
			continue
		}
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := dst[key].(map[string]any); ok {
				merge(dm, sm)
				continue
			}
		}
		dst[key] = normalize(sv)
	}
}

// normalize deep-copies v, converting decoder-specific types into the leaf
// kinds a Tree holds.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[cast.ToString(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64() //nolint:errcheck // json.Number is always a valid float literal
		return f
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt(x)
	case float32:
		return float64(x)
	default:
		return x
	}
}
