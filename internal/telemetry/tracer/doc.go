// Package tracer provides OpenTelemetry tracing for snapback.
//
// Tracing is opt-in. When disabled, or when no OTLP endpoint is configured,
// New installs nothing and spans created through StartSpan are no-ops.
package tracer
