// Package syncer merges externally resolved components into the mapping
// store as one transactional unit. A run snapshots every table into a
// verified backup set, merges the feed, validates every touched table
// against the reference-id grammar, and either commits all tables or
// restores all of them from the backup set. Partial per-table success is
// never exposed.
package syncer
