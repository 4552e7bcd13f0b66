// Package mcpconnect connects MCP clients to servers whose transport generation is not
// known in advance.
//
// Connect tries the streamable HTTP transport first, authorizing it with an OAuth
// authorization code flow whose redirect is captured on a loopback listener, and falls
// back to the legacy HTTP+SSE transport when that fails. ClientOptions can be populated
// from CLI flags or from a JSON document with LoadClientOptions.
//
// Example:
//
//	result, err := mcpconnect.Connect(ctx, &mcpconnect.ClientOptions{
//		URL:  "https://mcp.example.com/mcp",
//		Auth: &mcpconnect.ClientAuth{},
//	})
//	if err != nil {
//		return err
//	}
//	defer result.Close()
//	tools, err := result.Client.ListTools(ctx, nil)
package mcpconnect
