package catalog

import (
	"html/template"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// noneAssigned is shown for empty zone and facet lists.
const noneAssigned = "<i>none assigned</i>"

var (
	// text strips all markup from metadata values.
	text = bluemonday.StrictPolicy()

	facetPrefix = regexp.MustCompile(`^.*:`)
)

// FormatMetadata renders a thing's zones, facets, manufacturer and model
// as an HTML fragment, one line per field.
func FormatMetadata(meta map[string]any) template.HTML {
	var lines []string

	zones := sanitizeAll(list(meta, "iot:zone"))
	switch len(zones) {
	case 0:
		lines = append(lines, "<b>zones</b>: "+noneAssigned)
	case 1:
		lines = append(lines, "<b>zone</b>: "+zones[0])
	default:
		lines = append(lines, "<b>zones</b>: "+strings.Join(zones, ","))
	}

	facets := list(meta, "iot:facet")
	for i, f := range facets {
		facets[i] = facetPrefix.ReplaceAllString(f, "")
	}
	facets = sanitizeAll(facets)
	if len(facets) == 0 {
		lines = append(lines, "<b>facets</b>: "+noneAssigned)
	} else {
		lines = append(lines, "<b>facets</b>: "+strings.Join(facets, ","))
	}

	for _, field := range []struct{ key, label string }{
		{"schema:manufacturer", "manufacturer"},
		{"schema:model", "model"},
	} {
		v, ok := first(meta, field.key).(string)
		if !ok || v == "" {
			continue
		}
		lines = append(lines, "<b>"+field.label+"</b>: "+text.Sanitize(ScrubURL(v)))
	}

	return template.HTML(strings.Join(lines, "<br>")) //nolint:gosec // values sanitized above
}

// FormatThing is FormatMetadata applied to a thing.
func FormatThing(t Thing) template.HTML {
	return FormatMetadata(t.Meta)
}

// ScrubURL reduces an absolute URL to host and path without trailing
// slashes. Anything without a scheme is returned unchanged.
func ScrubURL(v string) string {
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" {
		return v
	}
	return u.Hostname() + strings.TrimRight(u.Path, "/")
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = text.Sanitize(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
