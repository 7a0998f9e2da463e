// Package credential holds the single live bearer credential of a client.
//
// A [Store] is a one-slot container with get/set/clear semantics. Stores accept
// any string and never validate it; interpreting the credential is the job of
// the token and guard packages.
//
// Implementations:
//
//   - [MemoryStore] keeps the credential in process memory.
//   - [FileStore] keeps it in a per-server file under the user config dir.
//   - [RedisStore] keeps it under one Redis key.
//
// Writes are visible to the next Get from any goroutine; no store buffers or
// caches the value.
package credential
