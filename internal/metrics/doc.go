// Package metrics provides lock-free counters and a latency histogram for
// session observability.
//
// Counters are cache-line padded uint64 slots incremented atomically. The
// histogram uses 8 fixed buckets (<=5ms ... +Inf). Neither allocates on the
// write path.
//
// Export (Prometheus, OTel) lives in metrics/export/ and reads snapshots.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Import goSession or any sibling package.
//   - Expose global registries.
package metrics
