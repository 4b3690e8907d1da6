// Package registry resolves player appearances from independent feeds to
// canonical player records.
//
// Resolve applies a fixed precedence: enrich the supplied identifiers from an
// IdentitySource, match on register id, major-format id, league id, then the
// normalized name, then the partial first-initial plus last-name key, and
// finally create a record keyed by the strongest identifier available.
// Identifiers are only ever filled in, never replaced, and two records are
// never merged once created. Attach appends appearances; it panics with
// *InvariantError for keys Resolve did not return.
package registry
