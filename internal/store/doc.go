// Package store provides the SQLite-backed instance catalog.
//
// A catalog records validation runs over instance sets:
//   - Runs: one per batch validation (UUIDv7 id, logical seq)
//   - Instances: outcome per instance, with content fingerprint and sizes
//   - Violations: referential integrity violations per instance
//
// All queries order by seq so listings are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
