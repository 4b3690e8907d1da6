// Package names normalizes player names into the keys the registry indexes.
//
// Normalization is a pure, ordered rule table (see Rules): Unicode NFC, the
// "Last, First" rewrite with initial detection, generational suffix removal,
// lowercasing and whitespace collapsing. PartialKey derives the lossy
// first-initial plus last-name key used as a last-resort match. Clean and
// Corrections tidy raw box-score text before any of that happens.
package names
