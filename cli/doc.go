// Package cli implements the mcpconnect command: it negotiates a transport with an MCP
// server, authorizing in the browser when the server asks for it, then lists the
// server's tools or calls one.
package cli
