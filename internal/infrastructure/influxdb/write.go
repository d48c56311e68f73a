package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the hub.
const (
	MeasurementPageRender = "page_render"
	MeasurementCatalog    = "catalog"
)

// WritePageRender records one dynamic page response. The status class
// ("2xx", "4xx", ...) is a tag so dashboards can group without exploding
// series per status code.
//
// Example:
//
//	client.WritePageRender("/things", 200, 4*time.Millisecond)
func (c *Client) WritePageRender(path string, status int, elapsed time.Duration) {
	c.write(MeasurementPageRender,
		map[string]string{
			"path":  path,
			"class": strconv.Itoa(status/100) + "xx",
		},
		map[string]any{
			"status":      status,
			"duration_ms": float64(elapsed) / float64(time.Millisecond),
		})
}

// WriteCatalogSize records how many things, recipes and discovered UPnP
// devices the hub currently knows.
func (c *Client) WriteCatalogSize(things, recipes, devices int) {
	c.write(MeasurementCatalog, nil, map[string]any{
		"things":  things,
		"recipes": recipes,
		"upnp":    devices,
	})
}

func (c *Client) write(measurement string, tags map[string]string, fields map[string]any) {
	if !c.Open() {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
