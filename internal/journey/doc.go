// Package journey answers questions about resolved players: who crossed
// levels, how many reached each tier, and the flattened rows used for
// reports and exports.
package journey
