// Package client implements a small MCP client over any jsonrpc transport.
//
// It performs the `initialize` handshake, sends generic requests through Request (with
// typed helpers such as ListTools and CallTool), and routes server notifications to
// handlers registered with SetNotificationHandler.
//
// Example:
//
//	handler := client.NewHandler()
//	sseTransport, _ := sse.New(ctx, "https://mcp.example.com/sse", sse.WithHandler(handler))
//	cli := client.New("demo", "1.0", sseTransport, client.WithHandler(handler))
//	if _, err := cli.Initialize(ctx); err != nil {
//		return err
//	}
//	tools, _ := cli.ListTools(ctx, nil)
package client
