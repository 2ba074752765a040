// Package observability sets up structured logging and OpenTelemetry export
// for the janusgraph-lab commands.
package observability
