// Package resource accounts for memory and concurrency shared by aggregators.
//
// The Controller governs two resource types:
//
//   - Memory: bytes held by register arrays and seen-ordinal bitsets
//     (non-blocking, fail-fast)
//   - Concurrency: the number of shard aggregations running at once
//
// # Architecture
//
//	┌───────────────────────────────────────────┐
//	│                Controller                 │
//	├─────────────────────┬─────────────────────┤
//	│  Memory Limit       │  Shard Workers      │
//	│  (fail-fast)        │  (semaphore)        │
//	├─────────────────────┼─────────────────────┤
//	│  AcquireMemory      │  AcquireBackground  │
//	│  ReleaseMemory      │  TryAcquireBack...  │
//	│  MemoryUsage        │  ReleaseBackground  │
//	└─────────────────────┴─────────────────────┘
//
// # Memory Management
//
// AcquireMemory never blocks. It returns ErrMemoryLimitExceeded when the
// reservation would cross the limit, which callers surface as a capacity
// error instead of silently truncating:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(1 << 14); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(1 << 14)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: they become no-ops and
// report zero usage. Aggregators therefore run untracked by default.
package resource
