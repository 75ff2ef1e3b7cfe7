// Package presets registers the built-in export column presets with the core
// registry. Import it for side effects wherever presets are looked up by key.
package presets

// Each preset file uses init() to register its columns.
