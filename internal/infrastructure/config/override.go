package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// overridePattern matches command-line tokens of the form path/to/leaf=value.
var overridePattern = regexp.MustCompile(`^([^=]+)=(.*)$`)

// ApplyOverrides applies command-line tokens to m in order.
//
// Tokens that are not of the form path=value are ignored. The type of the
// leaf being replaced decides how the value is coerced:
//   - bool: true when the value parses to a nonzero decimal integer
//   - int: parsed as base 10, so leading zeros are kept as decimal
//   - float64: parsed numerically
//   - string or unset: stored verbatim
//
// Arrays and mappings cannot be replaced.
//
// Parameters:
//   - m: Mutable tree root
//   - argv: Command-line tokens
//
// Returns:
//   - error: The first token that could not be applied, wrapping
//     ErrCompositeOverride, ErrScalarPath or ErrInvalidValue
func ApplyOverrides(m map[string]any, argv []string) error {
	for _, token := range argv {
		match := overridePattern.FindStringSubmatch(token)
		if match == nil {
			continue
		}
		if err := set(m, match[1], match[2]); err != nil {
			return err
		}
	}
	return nil
}

// set assigns value to the leaf at key, creating missing intermediate maps.
func set(m map[string]any, key, value string) error {
	segs := strings.Split(key, pathSeparator)
	d := m
	for _, seg := range segs[:len(segs)-1] {
		switch next := d[seg].(type) {
		case map[string]any:
			d = next
		case nil:
			created := map[string]any{}
			d[seg] = created
			d = created
		default:
			return fmt.Errorf("%w: %s", ErrScalarPath, key)
		}
	}

	last := segs[len(segs)-1]
	switch d[last].(type) {
	case bool:
		n, err := parseDecimal(value)
		d[last] = err == nil && n != 0
	case int:
		n, err := parseDecimal(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, key, value)
		}
		d[last] = n
	case float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidValue, key, value)
		}
		d[last] = f
	case []any:
		return fmt.Errorf("%w: %s is an array", ErrCompositeOverride, key)
	case map[string]any:
		return fmt.Errorf("%w: %s is a mapping", ErrCompositeOverride, key)
	default:
		d[last] = value
	}
	return nil
}

// parseDecimal reads value as a base 10 integer. Prefixes such as 0x and
// a leading 0 carry no radix meaning here.
func parseDecimal(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}
