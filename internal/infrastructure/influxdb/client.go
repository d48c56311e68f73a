package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
)

const (
	pingTimeout = 10 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// Client sends render and catalog telemetry to InfluxDB.
//
// Writes never block a request: points are batched by the client library
// and write failures arrive later on the SetOnError callback. Once closed,
// writes are dropped.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	influx influxdb2.Client
	writer api.WriteAPI
	open   atomic.Bool

	mu      sync.Mutex
	onError func(err error)
}

// Connect pings the server named by the influxdb section and opens a
// batched writer on its org and bucket.
//
// Parameters:
//   - cfg: The influxdb section with its token from keys/influxdb
//
// Returns:
//   - *Client: Open client
//   - error: ErrDisabled, or ErrConnectionFailed if the ping fails
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, batchOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	healthy, err := influx.Ping(ctx)
	switch {
	case err != nil:
		influx.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnectionFailed, cfg.URL, err)
	case !healthy:
		influx.Close()
		return nil, fmt.Errorf("%w: %s is not healthy", ErrConnectionFailed, cfg.URL)
	}

	c := &Client{
		influx: influx,
		writer: influx.WriteAPI(cfg.Org, cfg.Bucket),
	}
	c.open.Store(true)
	go c.forwardErrors()
	return c, nil
}

// batchOptions applies the configured batching, falling back to defaults
// for unset or negative values.
func batchOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	size, interval := cfg.BatchSize, cfg.FlushInterval
	if size <= 0 {
		size = defaultBatchSize
	}
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	// #nosec G115 -- both values are positive here
	return influxdb2.DefaultOptions().
		SetBatchSize(uint(size)).
		SetFlushInterval(uint(time.Duration(interval) * time.Second / time.Millisecond))
}

// forwardErrors hands asynchronous write failures to the callback. It ends
// when the library closes the channel on Close.
func (c *Client) forwardErrors() {
	for err := range c.writer.Errors() {
		c.mu.Lock()
		callback := c.onError
		c.mu.Unlock()
		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError sets the callback for failed batch writes.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	c.onError = callback
	c.mu.Unlock()
}

// Open reports whether the client still accepts points.
func (c *Client) Open() bool {
	return c.open.Load()
}

// Flush sends buffered points now. It does nothing after Close.
func (c *Client) Flush() {
	if c.Open() {
		c.writer.Flush()
	}
}

// Close flushes pending points and releases the connection. Closing a
// closed or zero Client is a no-op.
func (c *Client) Close() error {
	if !c.open.CompareAndSwap(true, false) {
		return nil
	}
	c.writer.Flush()
	c.influx.Close()
	return nil
}
