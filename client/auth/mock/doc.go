// Package mock provides an in-process OAuth2 authorization server for tests of the
// client-side authorization flow.
//
// The server issues RS256 JWTs, enforces PKCE (S256) on the authorization code grant,
// supports RFC 7591 dynamic client registration, publishes RFC 8414 and RFC 9728
// metadata, and can guard any http.Handler with Protect.
package mock
