package negotiator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/http/sse"
	"github.com/viant/jsonrpc/transport/client/http/streamable"
)

// Target is what a Dialer needs to construct a transport.
type Target struct {
	URL string
	// Handler receives server requests and notifications.
	Handler transport.Handler
	// HTTPClient is nil when the default client should be used.
	HTTPClient *http.Client
}

// Dialer constructs a client transport. ctx outlives the attempt and bounds the
// transport's background streams.
type Dialer interface {
	Dial(ctx context.Context, target *Target) (transport.Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, target *Target) (transport.Transport, error)

func (f DialerFunc) Dial(ctx context.Context, target *Target) (transport.Transport, error) {
	return f(ctx, target)
}

// StreamableDialer constructs the modern streamable HTTP transport. The returned
// transport implements io.Closer; closing it stops its background stream.
type StreamableDialer struct{}

func (StreamableDialer) Dial(ctx context.Context, target *Target) (transport.Transport, error) {
	httpClient, aGate := gatedClient(target.HTTPClient)
	ret, err := streamable.New(ctx, target.URL, streamable.WithHandler(target.Handler), streamable.WithHTTPClient(httpClient))
	if err != nil {
		_ = aGate.Close()
		return nil, fmt.Errorf("failed to create streamable transport: %w", err)
	}
	return &closableTransport{Transport: ret, gate: aGate}, nil
}

// SSEDialer constructs the legacy HTTP+SSE transport.
type SSEDialer struct{}

func (SSEDialer) Dial(ctx context.Context, target *Target) (transport.Transport, error) {
	httpClient, aGate := gatedClient(target.HTTPClient)
	ret, err := sse.New(ctx, target.URL, sse.WithHandler(target.Handler), sse.WithHttpClient(httpClient), sse.WithMessageHttpClient(httpClient))
	if err != nil {
		_ = aGate.Close()
		return nil, fmt.Errorf("failed to create SSE transport: %w", err)
	}
	return &closableTransport{Transport: ret, gate: aGate}, nil
}
