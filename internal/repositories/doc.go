// Package repositories implements SQLite persistence for accounts.
//
// Playlists and comments live in memory (see the collection package); only users who signed in through the catalog
// provider are written to the database. Records are soft deleted via deleted_at and excluded from queries by default.
//
// Key Implementations:
//   - [UserRepository] : account persistence keyed by the provider's user id
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42) independent of UUIDs and timestamps.
// [NextSequence] increments per-table counters kept in dedicated sequence tables.
package repositories
