package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
)

var errUninitialized = errors.New("client is not initialized")

// Client is an MCP client bound to one transport.
type Client struct {
	capabilities    schema.ClientCapabilities
	info            schema.Implementation
	protocolVersion string
	transport       transport.Transport
	handler         *Handler
	logger          *slog.Logger
	initialized     atomic.Bool
	server          atomic.Pointer[schema.InitializeResult]
}

// New creates a client speaking over transport. The transport should be constructed
// with the same Handler passed via WithHandler so that server notifications reach it.
func New(name, version string, transport transport.Transport, options ...Option) *Client {
	ret := &Client{
		info:      *schema.NewImplementation(name, version),
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.handler == nil {
		ret.handler = NewHandler(WithHandlerLogger(ret.logger))
	}
	if ret.protocolVersion == "" {
		ret.protocolVersion = schema.LatestProtocolVersion
	}
	return ret
}

// Transport returns the underlying transport.
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// Handler returns the server-to-client message handler.
func (c *Client) Handler() *Handler {
	return c.handler
}

// ServerResult returns the initialize result, nil before Initialize succeeded.
func (c *Client) ServerResult() *schema.InitializeResult {
	return c.server.Load()
}

// Initialize performs the initialize handshake followed by the initialized notification.
func (c *Client) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	params := &schema.InitializeRequestParams{
		Capabilities:    c.capabilities,
		ClientInfo:      c.info,
		ProtocolVersion: c.protocolVersion,
	}
	result := &schema.InitializeResult{}
	if err := c.call(ctx, schema.MethodInitialize, params, result); err != nil {
		return nil, err
	}
	err := c.transport.Notify(ctx, &jsonrpc.Notification{Method: schema.MethodNotificationInitialized})
	if err != nil {
		return nil, fmt.Errorf("failed to notify initialized: %w", err)
	}
	c.server.Store(result)
	c.initialized.Store(true)
	c.logger.Debug("mcp session initialized", "server", result.ServerInfo.Name)
	return result, nil
}

// Request sends method with params and decodes the result into result (which may be nil).
func (c *Client) Request(ctx context.Context, method string, params interface{}, result interface{}) error {
	if !c.initialized.Load() {
		return jsonrpc.NewInternalError(errUninitialized.Error(), nil)
	}
	return c.call(ctx, method, params, result)
}

// SetNotificationHandler registers fn for notifications named method; "*" matches any.
func (c *Client) SetNotificationHandler(method string, fn NotificationHandler) {
	c.handler.SetNotificationHandler(method, fn)
}

func (c *Client) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	params := &schema.ListToolsRequestParams{
		Cursor: cursor,
	}
	return send[schema.ListToolsRequestParams, schema.ListToolsResult](ctx, c, schema.MethodToolsList, params)
}

func (c *Client) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	return send[schema.CallToolRequestParams, schema.CallToolResult](ctx, c, schema.MethodToolsCall, params)
}

func (c *Client) Ping(ctx context.Context, params *schema.PingRequestParams) (*schema.PingResult, error) {
	return send[schema.PingRequestParams, schema.PingResult](ctx, c, schema.MethodPing, params)
}

// Close closes the transport when it supports closing.
func (c *Client) Close() error {
	c.initialized.Store(false)
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	req, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return jsonrpc.NewInvalidRequest(err.Error(), nil)
	}
	response, err := c.transport.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	if response == nil {
		return fmt.Errorf("%s failed: empty response", method)
	}
	if response.Error != nil {
		return response.Error
	}
	if result == nil || len(response.Result) == 0 {
		return nil
	}
	if err = json.Unmarshal(response.Result, result); err != nil {
		return jsonrpc.NewInternalError(fmt.Sprintf("failed to unmarshal %s result: %v", method, err), nil)
	}
	return nil
}

func send[P any, R any](ctx context.Context, client *Client, method string, parameters *P) (*R, error) {
	var result R
	if err := client.Request(ctx, method, parameters, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
