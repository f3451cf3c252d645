// Package config loads, normalizes, and validates the refsync TOML
// configuration file.
package config
