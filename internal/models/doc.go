// Package models defines domain entities and persistence interfaces for the soundchat service.
//
// The package contains two categories of types:
//
// 1. Collection entities: plain value types held by the in-memory collection store and serialized as-is on the wire
//   - [Playlist] : Named playlist owning an ordered list of track references
//   - [TrackRef] : Denormalized snapshot of a catalog track inside a playlist
//   - [Comment] : Free-text note attached to a playlist by id
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Accounts created or refreshed by the catalog OAuth handshake
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
