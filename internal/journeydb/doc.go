// Package journeydb exports resolved runs to a SQLite database.
//
// Each run is written once, in a single transaction, as rows in runs,
// players, player_levels and appearances. The schema is embedded and
// versioned through the schema_version table.
package journeydb
