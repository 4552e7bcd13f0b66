// Package transport implements an http.RoundTripper that performs the OAuth 2.1
// [Protected Resource Metadata](https://www.rfc-editor.org/rfc/rfc9728) discovery,
// token acquisition and automatic request retry logic required by MCP when a
// server challenges the client with `401 Unauthorized`.
//
// It is the auth hook of the streamable HTTP transport: interactive authorization is
// delegated to a scy flow.AuthFlow (the OAuth client provider), and clients unknown to
// the authorization server can be registered on the fly through a Registrar.
package transport
