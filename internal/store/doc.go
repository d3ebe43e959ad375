// Package store keeps a SQLite history of conversion runs.
//
// Each run records the options, the per-source counts, the destination and
// a digest of the rendered output, so a config block found in the wild can
// be traced back to the exports and switches that produced it.
//
// # Ordering
//
// Runs are listed newest first by start time, ties broken by id. Run ids
// are UUIDv7, which sort by creation time as text.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
