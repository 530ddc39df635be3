// Package cmap provides a concurrent map sharded by key hash.
//
// Each shard owns a plain Go map guarded by its own RWMutex, so readers and
// writers of unrelated keys rarely contend. Keys are routed to shards by a
// caller-supplied Hasher; StringHasher and KeyHasher cover the key types used
// by the storage layer.
//
// Usage:
//
//	m := cmap.New[string, *domain.User](cmap.StringHasher)
//	m.Set("ann@example.com", user)
//	u, ok := m.Get("ann@example.com")
//
// Thread Safety:
//
// All operations are thread-safe. Range holds one shard read lock at a time,
// so it observes a consistent view per shard but not across shards.
package cmap
