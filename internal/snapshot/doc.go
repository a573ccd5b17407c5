// Package snapshot captures accumulation stores and persists them.
//
// A Snapshot is the full slot set of one store after every merge of a block
// range. Snapshots are written to a Backend:
//   - SQLiteBackend: a single database file, one row per slot
//   - LevelDBBackend: a LevelDB directory, one record per snapshot
//
// # Naming
//
// Range file names put the end block first so that a directory listing
// sorts by the latest block covered:
//
//	FileName(Range{Start: 100, End: 10000})          // 0000010000-0000000100.kv
//	PartialFileName(Range{Start: 10000, End: 20000}) // 0000020000-0000010000.partial
//
// # Value Encoding
//
// Slot values are stored as their canonical text with the domain name next
// to them, so a restored value parses back into the same domain with the
// same scale.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Cascade slot rows with their snapshot
package snapshot
