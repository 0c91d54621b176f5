// Package server provides the HTTP API: routing, middleware and handlers over the collection store,
// the catalog provider and the authorization flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it with chi.
// Endpoint groups implement [Handler] and return their [Route] list, so each group keeps its paths next to its code.
//
// # Middleware
//
// [New] installs, outermost first: [RequestID], [RequestLogger], [Recoverer] and [CORS].
// A panic in a handler is logged and answered with a 500; the process keeps serving.
//
// # Handlers
//
//   - [PlaylistHandler] : playlists, tracks, comments and exports, backed by the collection store
//   - [CatalogHandler] : artist search, albums and tracks proxied to the provider
//   - [AuthHandler] : consent URL and code exchange; signed-in users are upserted into the user store
//   - [HealthHandler] : liveness and collection counts
//
// # Errors
//
// Every failure is a JSON object {"error": "..."}. Domain errors from the shared package map to statuses:
// missing playlist is 404; duplicate track, invalid input and failed authentication are 400;
// an unconfigured provider is 503; upstream and unexpected failures are 500 with a generic message.
package server
