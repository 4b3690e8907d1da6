// Package metrics records run outcomes as Prometheus metrics and writes
// them to a textfile for node-exporter, the usual route for batch jobs.
package metrics
