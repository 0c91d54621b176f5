// Package tasks runs long playlist operations against a running soundchat server with progress reporting.
//
// # Bulk Export
//
// [Engine.BulkExport] writes many playlists, each with its comments, to a directory:
//   - Lists every playlist when no ids are given
//   - Fetches playlists at a bounded rate and renders them on a worker pool
//   - Records per-playlist outcomes in export_manifest.json
//
// A failed playlist does not stop the others.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block: when the channel is full the
// update is dropped.
//
// # Sources
//
// [Source] abstracts where playlists come from. [APISource] reads them over HTTP through an [APIClient] such as
// [services.APIService].
package tasks
