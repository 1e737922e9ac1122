// Package cache persists compiled provider artifacts.
//
// A Store maps a cache key (a hex digest of the descriptor, the transformer
// set and the option names) to an immutable artifact. Backends:
//
//   - FileStore: one file per key, written to a temp file and renamed.
//   - Memory: in-process map, the default.
//   - Redis: go-redis strings, optional prefix and TTL.
//   - S3: one object per key via aws-sdk-go-v2.
//   - Postgres: one upserted row per key via pgx.
//
// Two processes racing on a key write identical bytes, so the last writer
// wins without locking.
//
// Usage:
//
//	store := cache.NewFileStore("/var/cache/jsondecode")
//	dec := jsondecode.New(jsondecode.WithStore(store))
package cache
