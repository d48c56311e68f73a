// Package profile records the running hub in a small JSON document so that
// a later start on the same install can find and stop it, and so that tools
// can discover the web and bus endpoints without reading the config.
package profile
