// Package resolver turns free-form or abbreviated component strings into
// canonical reference identifiers. Resolution runs an explicitly ordered
// strategy list (exact key, category heuristics, folded substring); a total
// failure is always forwarded to the missing-entry tracker so catalog gaps
// surface for curation.
package resolver
