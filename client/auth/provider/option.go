package provider

import (
	"log/slog"
	"net/http"

	"github.com/viant/mcpconnect/client/auth/store"
)

// Option configures a Provider.
type Option func(p *Provider)

// WithClientMetadata sets the registration metadata.
func WithClientMetadata(metadata ClientMetadata) Option {
	return func(p *Provider) {
		p.metadata = metadata
	}
}

// WithStore sets the token and client store.
func WithStore(aStore store.Store) Option {
	return func(p *Provider) {
		p.store = aStore
	}
}

// WithHTTPClient sets the client used for discovery, registration and token exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}
