// Package identity links player identifiers across the register, major-league
// reference and league API namespaces.
//
// A Dataset is built from the sixteen register CSV shards (HTTPSource or
// DirSource) and persisted as a single JSON document. Service applies the
// refresh policy: a cache younger than the max age is used directly, an older
// or missing one is rebuilt with bounded retries under a file lock, and a
// failed rebuild falls back to whatever was last available. Lookups never
// fail; unknown ids return a zero Identity.
package identity
