// Package memory provides the in-memory key-value store for respkv.
//
// The store maps string keys to string values with an optional absolute
// expiration instant. It is the only state shared by client connections.
//
// Features:
//
//   - Sharded Storage: keys distributed across cmap shards for parallelism
//   - Conditional Writes: NX (only if absent) and XX (only if present)
//   - Expiration: EX, PX, EXAT, PXAT and KEEPTTL rules
//   - Lazy Expiration: expired entries read as absent and are purged when
//     an operation touches them; there is no background sweeper
//
// Thread Safety:
//
// Every Get and Set runs under the lock of the shard owning the key, so
// operations on the same key are serialized.
package memory
