// Package store defines the token and client-registration stores used by the
// authorization RoundTripper and the OAuth client provider.
//
// The in-memory implementation is sufficient for a single negotiation; FileStore keeps
// tokens and dynamically registered clients across process restarts.
package store
