// Package config loads, normalizes, and validates journey configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JOURNEY_REGISTER_URL. The Config type centralizes the identity register
// refresh policy, the feed directories and the export destinations so the CLI
// can discover every setting in one pass.
package config
