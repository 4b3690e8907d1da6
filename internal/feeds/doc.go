// Package feeds adapts collegiate, minor, partner and major-league box-score
// files into registry submissions.
//
// Each feed directory holds JSON game files. Adapters clean names, pick the
// identifier the feed carries natively and drop repeated lines. The Loader
// decodes files in parallel and then resolves and attaches every submission
// from one goroutine, skipping repeated games and logging malformed records
// without stopping the feed.
package feeds
