// Package influxdb records hub telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library for connection
// checks and batched point writes.
//
// # Measurements
//
//   - page_render: one point per dynamic page response (path, status class, status, duration)
//   - catalog: periodic counts of things, recipes and UPnP devices
//
// # Usage
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WritePageRender("/things", 200, elapsed)
//
// # Error Handling
//
// Writes are non-blocking and batch errors are delivered to the SetOnError
// callback. Connection errors are returned by Connect.
package influxdb
