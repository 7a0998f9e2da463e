// Package prometheus exposes session metrics as a Prometheus collector.
//
// [Exporter] reads a metrics snapshot on every scrape; nothing is
// registered globally. Mount [Exporter.Handler] or register the exporter
// with your own registry. Counters are named gosession_*_total and the
// latency histogram is gosession_api_latency_seconds.
package prometheus
