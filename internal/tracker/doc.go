// Package tracker maintains the durable ledger of failed resolutions. Every
// miss is persisted before the recording call returns; repeat sightings of
// the same (category, raw value) pair increment a frequency counter so
// catalog-curation effort can be prioritized.
package tracker
