// Package mapping persists the per-category canonical-key to reference-id
// tables that back name resolution. Each category is one flat JSON object on
// disk; tables are rewritten in sorted key order through an atomic replace so
// concurrent readers never observe a partial table.
package mapping
