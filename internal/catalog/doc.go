// Package catalog holds what the hub knows about the home: things announced
// on the bus, UPnP devices found by discovery, and recipes loaded from
// cookbook files.
//
// Pages read the catalog on every request while bus handlers write to it,
// so every accessor is safe for concurrent use and returns copies.
package catalog
