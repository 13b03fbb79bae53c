// Package cmap provides a concurrent map implementation for respkv.
//
// This package implements a sharded concurrent map with:
//
//   - Sharding: keys are spread over shards with murmur3
//   - Fine-grained Locking: per-shard RWMutex for minimal contention
//   - Atomic read-modify-write through Compute
//
// Usage:
//
//	m := cmap.NewWithShards[string, int](32)
//	m.Compute("key", func(cur int, _ bool) (int, cmap.Op) { return cur + 1, cmap.Store })
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Range, Count) use
// RLock, write operations (Compute, DeleteIf) use Lock.
package cmap
