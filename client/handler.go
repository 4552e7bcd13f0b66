package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpconnect/internal/collection"
)

// AnyNotification registers a catch-all notification handler.
const AnyNotification = "*"

// NotificationHandler receives server notifications.
type NotificationHandler func(ctx context.Context, notification *jsonrpc.Notification)

// Handler is the transport.Handler for server-to-client traffic. Notifications are
// dispatched asynchronously to the handler registered for their method.
type Handler struct {
	notifications *collection.SyncMap[string, NotificationHandler]
	delegate      transport.Handler
	logger        *slog.Logger
	pending       sync.WaitGroup
}

// HandlerOption configures a Handler.
type HandlerOption func(h *Handler)

// WithDelegate forwards server requests to delegate instead of answering MethodNotFound.
func WithDelegate(delegate transport.Handler) HandlerOption {
	return func(h *Handler) {
		h.delegate = delegate
	}
}

// WithHandlerLogger sets logger
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler.
func NewHandler(options ...HandlerOption) *Handler {
	ret := &Handler{
		notifications: collection.NewSyncMap[string, NotificationHandler](),
		logger:        slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// SetNotificationHandler registers fn for method; a nil fn removes the registration.
func (h *Handler) SetNotificationHandler(method string, fn NotificationHandler) {
	if fn == nil {
		h.notifications.Delete(method)
		return
	}
	h.notifications.Put(method, fn)
}

func (h *Handler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	switch {
	case request.Method == schema.MethodPing:
		response.Result = []byte("{}")
	case h.delegate != nil:
		h.delegate.Serve(ctx, request, response)
	default:
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", request.Method), nil)
	}
}

// OnNotification handles notification
func (h *Handler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	fn, ok := h.notifications.Lookup(notification.Method, AnyNotification)
	if !ok {
		if h.delegate != nil {
			h.delegate.OnNotification(ctx, notification)
			return
		}
		h.logger.Debug("unhandled notification", "method", notification.Method)
		return
	}
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		fn(context.WithoutCancel(ctx), notification)
	}()
}

// Wait blocks until dispatched notifications have been handled.
func (h *Handler) Wait() {
	h.pending.Wait()
}
