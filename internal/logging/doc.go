// Package logging wraps log/slog with the attribute helpers and standard
// field names shared across refsync components.
package logging
