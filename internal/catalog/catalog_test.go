package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/mqtt"
)

func TestThingsSortedAndCopied(t *testing.T) {
	c := New()
	require.NoError(t, c.PutThing("b", map[string]any{"schema:name": "Lamp"}))
	require.NoError(t, c.PutThing("a", map[string]any{"schema:name": []any{"Fan"}}))
	require.NoError(t, c.PutState("a", map[string]any{"on": true}))
	assert.ErrorIs(t, c.PutThing("", nil), ErrEmptyID)

	things := c.Things()
	require.Len(t, things, 2)
	assert.Equal(t, "Fan", things[0].Name())
	assert.Equal(t, "Lamp", things[1].Name())
	assert.Equal(t, true, things[0].State["on"])

	things[0].Meta["schema:name"] = "changed"
	got, ok := c.ThingByID("a")
	require.True(t, ok)
	assert.Equal(t, []any{"Fan"}, got.Meta["schema:name"])

	// Metadata updates keep state.
	require.NoError(t, c.PutThing("a", map[string]any{"schema:name": "Fan 2"}))
	got, _ = c.ThingByID("a")
	assert.Equal(t, true, got.State["on"])

	c.RemoveThing("a")
	_, ok = c.ThingByID("a")
	assert.False(t, ok)
}

func TestUPnPFiltersAndSorts(t *testing.T) {
	c := New()
	require.NoError(t, c.PutUPnP("uuid:2", map[string]any{
		"friendlyName": "Zeta TV",
		"_private":     "hidden",
		"services":     []any{"x"},
		"port":         json.Number("1400"),
	}))
	require.NoError(t, c.PutUPnP("uuid:1", map[string]any{
		"friendlyName": "Alpha Speaker",
		"modelNumber":  3,
		"nested":       map[string]any{"a": 1},
	}))

	listing := c.UPnP()
	require.Len(t, listing.Devices, 2)
	assert.Equal(t, map[string]any{"friendlyName": "Alpha Speaker", "modelNumber": 3}, listing.Devices[0])
	assert.Equal(t, map[string]any{"friendlyName": "Zeta TV", "port": json.Number("1400")}, listing.Devices[1])

	c.RemoveUPnP("uuid:1")
	assert.Len(t, c.UPnP().Devices, 1)
}

const livingCookbook = `
name: Living Room
recipes:
  - id: lights-on
    name: Lights On
    thing_group: Lights
    watch: [a]
    _context: {x: 1}
    iot:type: iot:type.boolean
  - name: Movie Time
    thing_name: TV
  - name: Fan Speed
    group: Climate
    iot:type: iot:type.integer
    iot:minimum: 0
    iot:maximum: 3
  - name: Orphan
---
name: Extras
recipes:
  - id: lights-on
    name: Duplicate
`

func writeCookbook(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadCookbooksAssignsGroups(t *testing.T) {
	dir := t.TempDir()
	writeCookbook(t, dir, "living.yaml", livingCookbook)
	writeCookbook(t, dir, "notes.txt", "ignored")

	c := New()
	require.NoError(t, c.LoadCookbooks(dir))

	var assigned []string
	recipes := c.Recipes(func(rd map[string]any) {
		assigned = append(assigned, rd["_id"].(string))
		rd["_interactor"] = "text"
	})
	require.Len(t, recipes, 4)

	groups := map[string]string{}
	for _, rd := range recipes {
		groups[rd["name"].(string)] = rd["_group"].(string)
		assert.NotContains(t, rd, "watch")
		assert.NotContains(t, rd, "_context")
		assert.Equal(t, "Living Room", rd["cookbook"])
	}
	assert.Equal(t, map[string]string{
		"Lights On":  "Lights",
		"Movie Time": "TV",
		"Fan Speed":  "Climate",
		"Orphan":     "Ungrouped",
	}, groups)
	assert.Equal(t, []string{"lights-on", "living-movie-time", "living-fan-speed", "living-3"}, assigned)

	// Stored recipes are untouched by display copies.
	stored, ok := c.RecipeByID("lights-on")
	require.True(t, ok)
	assert.Contains(t, stored, "watch")
	assert.NotContains(t, stored, "_interactor")

	cookbooks := c.Cookbooks()
	require.Len(t, cookbooks, 2)
	assert.Equal(t, "Extras", cookbooks[0].Name)
	assert.Equal(t, 0, cookbooks[0].Recipes)
	assert.Equal(t, "Living Room", cookbooks[1].Name)
	assert.Equal(t, 4, cookbooks[1].Recipes)

	_, recipeCount, _ := c.Counts()
	assert.Equal(t, 4, recipeCount)
}

func TestLoadCookbooksMissingFolder(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadCookbooks(filepath.Join(t.TempDir(), "absent")))
	assert.Empty(t, c.Recipes(nil))
}

func TestLoadCookbooksMalformed(t *testing.T) {
	dir := t.TempDir()
	writeCookbook(t, dir, "bad.yml", "recipes: [unterminated")

	err := New().LoadCookbooks(dir)
	assert.ErrorIs(t, err, ErrBadCookbook)
}

type fakeBus struct {
	handlers map[string]mqtt.MessageHandler
	fail     error
}

func (b *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if b.fail != nil {
		return b.fail
	}
	if b.handlers == nil {
		b.handlers = map[string]mqtt.MessageHandler{}
	}
	b.handlers[topic] = handler
	return nil
}

func TestSubscribeIngestsBusMessages(t *testing.T) {
	c := New()
	bus := &fakeBus{}
	require.NoError(t, c.Subscribe(bus, 1))

	topics := mqtt.Topics{}
	require.Len(t, bus.handlers, 3)

	meta := bus.handlers[topics.AllThingMeta()]
	require.NoError(t, meta(topics.ThingMeta("lamp-1"), []byte(`{"schema:name":"Lamp","iot:zone":["Den"]}`)))
	require.NoError(t, bus.handlers[topics.AllThingState()](topics.ThingState("lamp-1"), []byte(`{"on":true}`)))
	require.NoError(t, bus.handlers[topics.AllUPnPDevices()](topics.UPnPDevice("uuid:9"), []byte(`{"friendlyName":"TV","port":1400}`)))

	thing, ok := c.ThingByID("lamp-1")
	require.True(t, ok)
	assert.Equal(t, "Lamp", thing.Name())
	assert.Equal(t, true, thing.State["on"])
	assert.Equal(t, json.Number("1400"), c.UPnP().Devices[0]["port"])

	assert.ErrorIs(t, meta(topics.ThingMeta("lamp-2"), []byte(`not json`)), ErrBadPayload)
	assert.ErrorIs(t, meta(topics.ThingMeta("lamp-2"), []byte(`null`)), ErrBadPayload)

	require.NoError(t, meta(topics.ThingMeta("lamp-1"), nil))
	_, ok = c.ThingByID("lamp-1")
	assert.False(t, ok)

	require.NoError(t, bus.handlers[topics.AllUPnPDevices()](topics.UPnPDevice("uuid:9"), []byte(" ")))
	assert.Empty(t, c.UPnP().Devices)
}

func TestSubscribeError(t *testing.T) {
	boom := errors.New("not connected")
	err := New().Subscribe(&fakeBus{fail: boom}, 1)
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentIngestAndRead(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.PutThing(string(rune('a'+i)), map[string]any{"schema:name": "x"}) //nolint:errcheck // ids are non-empty
		}()
		go func() {
			defer wg.Done()
			_ = c.Things()
			_ = c.UPnP()
		}()
	}
	wg.Wait()
	things, _, _ := c.Counts()
	assert.Equal(t, 20, things)
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want string
	}{
		{
			name: "empty",
			meta: map[string]any{},
			want: "<b>zones</b>: <i>none assigned</i><br><b>facets</b>: <i>none assigned</i>",
		},
		{
			name: "single zone and facet",
			meta: map[string]any{
				"iot:zone":  "Kitchen",
				"iot:facet": []any{"iot-facet:lighting"},
			},
			want: "<b>zone</b>: Kitchen<br><b>facets</b>: lighting",
		},
		{
			name: "lists and vendor",
			meta: map[string]any{
				"iot:zone":            []any{"Kitchen", "Den"},
				"iot:facet":           []any{"iot-facet:lighting", "iot-facet:climate"},
				"schema:manufacturer": "http://www.philips.com/hue/",
				"schema:model":        []any{"LCT001"},
			},
			want: "<b>zones</b>: Kitchen,Den<br><b>facets</b>: lighting,climate" +
				"<br><b>manufacturer</b>: www.philips.com/hue<br><b>model</b>: LCT001",
		},
		{
			name: "markup is stripped",
			meta: map[string]any{
				"iot:zone":     []any{"<script>alert(1)</script>", "Den & Hall"},
				"schema:model": "<b>X</b>",
			},
			want: "<b>zone</b>: Den &amp; Hall<br><b>facets</b>: <i>none assigned</i><br><b>model</b>: X",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(FormatMetadata(tt.meta)))
		})
	}
}

func TestScrubURL(t *testing.T) {
	assert.Equal(t, "example.com/a/b", ScrubURL("https://example.com:8443/a/b///"))
	assert.Equal(t, "example.com", ScrubURL("http://example.com/"))
	assert.Equal(t, "Acme Corp", ScrubURL("Acme Corp"))
}
