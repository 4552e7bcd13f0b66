package transport

import (
	"log/slog"
	"net/http"

	"github.com/viant/mcpconnect/client/auth/store"
	"github.com/viant/scy/auth/flow"
)

type Option func(*RoundTripper)

// WithStore sets store
func WithStore(store store.Store) Option {
	return func(t *RoundTripper) {
		t.store = store
	}
}

// WithAuthFlow sets auth flow
func WithAuthFlow(flow flow.AuthFlow) Option {
	return func(t *RoundTripper) {
		t.authFlow = flow
	}
}

// WithRegistrar sets the dynamic client registrar used when the store has no client config
func WithRegistrar(registrar Registrar) Option {
	return func(t *RoundTripper) {
		t.registrar = registrar
	}
}

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *RoundTripper) {
		t.logger = logger
	}
}
