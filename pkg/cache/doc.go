// Package cache provides a generic, thread-safe LRU cache with
// optional per-entry TTL.
//
// The cache evicts the least recently used entry once capacity is
// reached and drops expired entries lazily on access. It backs the
// feature gate's read-through flag cache but is generic over any
// comparable key and any value type.
//
// # Usage
//
//	c := cache.NewLRUCache[string, *featuregate.Flag](256)
//
//	c.PutTTL("new-ui", flag, 30*time.Second)
//	if flag, ok := c.Get("new-ui"); ok {
//		// fresh enough
//	}
//
// Entries stored with Put (or a non-positive TTL) never expire and are
// only displaced by LRU eviction.
//
// # Cleanup
//
// An eviction callback can be registered for values holding resources:
//
//	c.SetEvictCallback(func(key string, v *Conn) { v.Close() })
//
// The callback fires for LRU evictions, lazy expiry removals, Remove
// and Clear.
//
// # Concurrency
//
// All operations are safe for concurrent use; Get, Put, PutTTL and
// Remove are O(1).
package cache
