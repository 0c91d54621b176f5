// Package services talks to the music catalog provider on behalf of the HTTP API.
//
// # Catalog
//
// [Catalog] is the read-only surface the server proxies: artist search, an artist's albums and an album's tracks.
// [SpotifyService] implements it with an application token obtained through the client-credentials grant
// (see [golang.org/x/oauth2/clientcredentials]). The token is reused until it expires and then fetched again.
// Outbound calls can be paced with a [rate.Limiter].
//
// Albums come back newest-first. Spotify reports release dates at year, month or day precision; all three are
// compared as the first instant they could denote, and dates that do not parse sort after every dated album.
//
// # Authorization
//
// [Authorizer] covers the user-facing authorization-code flow: building the consent URL, exchanging the code and
// reading the user's profile with the resulting token. [SpotifyService] implements it too.
//
// # API Client
//
// [APIService] is a small client for this application's own HTTP API, used by the CLI.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status from the provider
//   - [shared.ErrAuthFailed] : the authorization code could not be exchanged
//   - [shared.ErrInvalidInput] : blank query, id or code
//   - [shared.ErrMissingCredentials] : client id or secret not configured
package services
