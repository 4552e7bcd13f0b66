package negotiator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"github.com/viant/jsonrpc/transport"
)

// ErrTransportClosed is returned for HTTP requests issued by a transport after it was closed.
var ErrTransportClosed = errors.New("transport closed")

// gate is an http.RoundTripper that can be shut. Once closed it rejects new requests and
// aborts in-flight ones, which stops the reconnect loops the viant transports run in the background.
type gate struct {
	next   http.RoundTripper
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newGate(next http.RoundTripper) *gate {
	if next == nil {
		next = http.DefaultTransport
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &gate{next: next, ctx: ctx, cancel: cancel}
}

func (g *gate) RoundTrip(request *http.Request) (*http.Response, error) {
	if g.ctx.Err() != nil {
		return nil, ErrTransportClosed
	}
	ctx, cancel := context.WithCancel(request.Context())
	stop := context.AfterFunc(g.ctx, cancel)
	release := func() {
		stop()
		cancel()
	}
	response, err := g.next.RoundTrip(request.WithContext(ctx))
	if err != nil {
		release()
		if g.ctx.Err() != nil {
			return nil, ErrTransportClosed
		}
		return nil, err
	}
	response.Body = &gatedBody{ReadCloser: response.Body, release: release}
	return response, nil
}

func (g *gate) Close() error {
	g.once.Do(g.cancel)
	return nil
}

type gatedBody struct {
	io.ReadCloser
	release func()
}

func (b *gatedBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}

// gatedClient returns a copy of client whose requests pass through a gate.
func gatedClient(client *http.Client) (*http.Client, *gate) {
	ret := &http.Client{}
	var next http.RoundTripper
	if client != nil {
		*ret = *client
		next = client.Transport
	}
	if ret.Jar == nil {
		ret.Jar, _ = cookiejar.New(nil)
	}
	aGate := newGate(next)
	ret.Transport = aGate
	return ret, aGate
}

// closableTransport adds Close to a transport that has none.
type closableTransport struct {
	transport.Transport
	gate *gate
}

func (c *closableTransport) Close() error {
	if closer, ok := c.Transport.(io.Closer); ok {
		_ = closer.Close()
	}
	return c.gate.Close()
}

// Unwrap returns the underlying transport.
func (c *closableTransport) Unwrap() transport.Transport {
	return c.Transport
}
