package negotiator

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/viant/mcpconnect/client"
	"github.com/viant/mcpconnect/client/auth/provider"
	"github.com/viant/mcpconnect/internal/instrumentation"
)

// ProviderFactory returns a fresh OAuth provider for one modern attempt.
type ProviderFactory func() (*provider.Provider, error)

// Option configures a Negotiator.
type Option func(n *Negotiator)

// WithClientInfo sets the implementation name and version sent on initialize.
func WithClientInfo(name, version string) Option {
	return func(n *Negotiator) {
		n.name = name
		n.version = version
	}
}

// WithClientOptions appends options applied to every client.
func WithClientOptions(options ...client.Option) Option {
	return func(n *Negotiator) {
		n.clientOptions = append(n.clientOptions, options...)
	}
}

// WithProviderFactory attaches OAuth authorization to the modern transport.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(n *Negotiator) {
		n.providerFactory = factory
	}
}

// WithHTTPClient sets the base HTTP client of both transports.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(n *Negotiator) {
		n.httpClient = httpClient
	}
}

// WithModernDialer overrides the modern transport constructor.
func WithModernDialer(dialer Dialer) Option {
	return func(n *Negotiator) {
		n.modern = dialer
	}
}

// WithLegacyDialer overrides the legacy transport constructor.
func WithLegacyDialer(dialer Dialer) Option {
	return func(n *Negotiator) {
		n.legacy = dialer
	}
}

// WithLegacyURL connects the legacy transport to URL instead of the negotiated URL.
func WithLegacyURL(URL string) Option {
	return func(n *Negotiator) {
		n.legacyURL = URL
	}
}

// WithAttemptTimeout bounds each initialize handshake.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(n *Negotiator) {
		n.attemptTimeout = timeout
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(n *Negotiator) {
		n.logger = logger
	}
}

// WithMetrics sets the instruments attempts are recorded on.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(n *Negotiator) {
		n.metrics = metrics
	}
}
