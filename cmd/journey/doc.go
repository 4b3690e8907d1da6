// Package main hosts the journey CLI.
//
// Commands load configuration once, build a run-scoped logger and then hand
// off to the internal packages: identity for the cross-reference register,
// feeds and registry for ingestion, journey for reports and journeydb and
// metrics for run outputs. Reports go to stdout and logs to stderr and the
// log file, so output can be piped.
package main
