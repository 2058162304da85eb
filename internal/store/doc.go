// Package store provides SQLite-backed storage for finished n-back blocks
// and the player's persistent settings.
//
// Two tables:
//   - sessions: one row per completed block, with its tally, rates, seed and
//     a JSON array of per-trial records
//   - settings: key/value pairs, currently only the level to start the next
//     block at
//
// Aborted blocks are never stored.
//
// # Ordering
//
// Listing queries order by completed_at DESC, id DESC so that results are
// stable when two blocks finish in the same millisecond.
//
// # Connection
//
// A Store holds one connection in WAL mode with a 5 second busy timeout.
// The schema version lives in PRAGMA user_version and Open applies any
// pending migrations.
package store
