// Package keystore persists JSON documents keyed by path in SQLite.
//
// The hub keeps its persisted settings overlay in the document at
// RunnerKey. The "homestar set" and "homestar get" commands edit single
// leaves of that document; "homestar run" reads it as a config.Tree.
package keystore
