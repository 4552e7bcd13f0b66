// Package provider implements the OAuth client provider attached to the modern MCP
// transport.
//
// A Provider holds the client registration metadata and the loopback redirect URI, and
// satisfies scy's flow.AuthFlow by running an authorization code grant with PKCE whose
// interactive step is delegated to a flow.Broker. It can also register itself with an
// authorization server (RFC 7591) when no client credentials are known.
package provider
