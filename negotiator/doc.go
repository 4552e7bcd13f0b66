// Package negotiator connects an MCP client to a server without knowing in advance
// which HTTP transport generation the server implements.
//
// The modern streamable HTTP transport is attempted first, with OAuth authorization
// attached through a fresh provider. Any failure of that attempt closes the modern
// transport and its provider, and a second, independent client is connected over the
// legacy SSE transport. When both fail, a NegotiationError carries both reasons.
//
// Attempts are strictly sequential: the legacy transport is never constructed before
// the modern attempt has failed, and never at all when it succeeds.
package negotiator
