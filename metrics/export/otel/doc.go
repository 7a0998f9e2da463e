// Package otel publishes session metrics through an OpenTelemetry meter.
//
// [NewExporter] registers one observable counter per session counter and
// one observable gauge per latency bucket, read from a single callback on
// each collection. The caller owns the MeterProvider.
package otel
