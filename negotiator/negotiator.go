package negotiator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcpconnect/client"
	"github.com/viant/mcpconnect/client/auth/provider"
	authtransport "github.com/viant/mcpconnect/client/auth/transport"
	"github.com/viant/mcpconnect/internal/instrumentation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultClientName    = "mcpconnect"
	defaultClientVersion = "0.1.0"
)

// Attempt records one transport attempt.
type Attempt struct {
	Kind    Kind
	URL     string
	Err     error
	Elapsed time.Duration
}

// Result is a connected client. The caller owns it and must Close it.
type Result struct {
	Client    *client.Client
	Transport transport.Transport
	Kind      Kind
	Attempts  []Attempt
	provider  *provider.Provider
}

// Provider returns the OAuth provider bound to a modern connection, if any.
func (r *Result) Provider() *provider.Provider {
	return r.provider
}

// Close closes the transport and releases the OAuth provider.
func (r *Result) Close() error {
	var err error
	if r.Client != nil {
		err = r.Client.Close()
	}
	if r.provider != nil {
		err = errors.Join(err, r.provider.Close())
	}
	return err
}

// Negotiator connects clients, preferring the modern transport.
type Negotiator struct {
	name            string
	version         string
	clientOptions   []client.Option
	providerFactory ProviderFactory
	httpClient      *http.Client
	modern          Dialer
	legacy          Dialer
	legacyURL       string
	attemptTimeout  time.Duration
	logger          *slog.Logger
	metrics         *instrumentation.Metrics
}

// New creates a Negotiator.
func New(options ...Option) *Negotiator {
	ret := &Negotiator{
		name:    defaultClientName,
		version: defaultClientVersion,
		modern:  StreamableDialer{},
		legacy:  SSEDialer{},
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.metrics == nil {
		ret.metrics = instrumentation.Default()
	}
	return ret
}

// Negotiate connects to serverURL over the modern transport, falling back to the legacy
// transport when the modern attempt fails for any reason.
func (n *Negotiator) Negotiate(ctx context.Context, serverURL string) (*Result, error) {
	logger := n.logger.With("negotiation_id", uuid.NewString(), "url", serverURL)
	ctx, span := instrumentation.Tracer().Start(ctx, "negotiate", trace.WithAttributes(attribute.String("mcp.url", serverURL)))
	defer span.End()

	modern, modernAttempt := n.attempt(ctx, Modern, serverURL, logger)
	if modernAttempt.Err == nil {
		modern.Attempts = []Attempt{modernAttempt}
		span.SetAttributes(attribute.String("mcp.transport", string(Modern)))
		return modern, nil
	}
	logger.Info("falling back to legacy transport", "reason", modernAttempt.Err)

	legacyURL := serverURL
	if n.legacyURL != "" {
		legacyURL = n.legacyURL
	}
	legacy, legacyAttempt := n.attempt(ctx, Legacy, legacyURL, logger)
	if legacyAttempt.Err == nil {
		legacy.Attempts = []Attempt{modernAttempt, legacyAttempt}
		span.SetAttributes(attribute.String("mcp.transport", string(Legacy)))
		return legacy, nil
	}

	err := &NegotiationError{
		URL:    serverURL,
		Modern: &AttemptError{Kind: Modern, URL: serverURL, Err: modernAttempt.Err},
		Legacy: &AttemptError{Kind: Legacy, URL: legacyURL, Err: legacyAttempt.Err},
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "negotiation failed")
	logger.Error("negotiation failed", "error", err)
	return nil, err
}

// attempt builds an independent client and transport pair and runs initialize on it.
// Everything it created is released when it fails.
func (n *Negotiator) attempt(ctx context.Context, kind Kind, URL string, logger *slog.Logger) (*Result, Attempt) {
	logger = logger.With("transport", string(kind))
	ctx, span := instrumentation.Tracer().Start(ctx, "negotiate."+string(kind),
		trace.WithAttributes(attribute.String("mcp.transport", string(kind)), attribute.String("mcp.url", URL)))
	defer span.End()

	started := time.Now()
	result := &Result{Kind: kind}
	fail := func(err error) (*Result, Attempt) {
		attempt := Attempt{Kind: kind, URL: URL, Err: err, Elapsed: time.Since(started)}
		n.metrics.RecordAttempt(ctx, string(kind), instrumentation.OutcomeFailure, attempt.Elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("transport attempt failed", "error", err, "elapsed", attempt.Elapsed)
		if err := result.Close(); err != nil {
			logger.Debug("failed to release attempt", "error", err)
		}
		return nil, attempt
	}

	logger.Debug("attempting transport")
	handler := client.NewHandler(client.WithHandlerLogger(logger))
	target := &Target{URL: URL, Handler: handler, HTTPClient: n.httpClient}
	if kind == Modern && n.providerFactory != nil {
		aProvider, err := n.providerFactory()
		if err != nil {
			return fail(fmt.Errorf("failed to create oauth provider: %w", err))
		}
		result.provider = aProvider
		httpClient, err := n.authorizedClient(aProvider, logger)
		if err != nil {
			return fail(err)
		}
		target.HTTPClient = httpClient
	}

	dialer := n.modern
	if kind == Legacy {
		dialer = n.legacy
	}
	aTransport, err := dialer.Dial(ctx, target)
	if err != nil {
		return fail(err)
	}
	result.Transport = aTransport
	options := append([]client.Option{client.WithLogger(logger)}, n.clientOptions...)
	options = append(options, client.WithHandler(handler))
	result.Client = client.New(n.name, n.version, aTransport, options...)

	initCtx := ctx
	if n.attemptTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, n.attemptTimeout)
		defer cancel()
	}
	if _, err = result.Client.Initialize(initCtx); err != nil {
		return fail(err)
	}
	attempt := Attempt{Kind: kind, URL: URL, Elapsed: time.Since(started)}
	n.metrics.RecordAttempt(ctx, string(kind), instrumentation.OutcomeSuccess, attempt.Elapsed)
	logger.Info("connected", "elapsed", attempt.Elapsed)
	return result, attempt
}

func (n *Negotiator) authorizedClient(aProvider *provider.Provider, logger *slog.Logger) (*http.Client, error) {
	options := []authtransport.Option{
		authtransport.WithStore(aProvider.Store()),
		authtransport.WithAuthFlow(aProvider),
		authtransport.WithRegistrar(aProvider),
		authtransport.WithLogger(logger),
	}
	if n.httpClient != nil && n.httpClient.Transport != nil {
		options = append(options, authtransport.WithTransport(n.httpClient.Transport))
	}
	roundTripper, err := authtransport.New(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth transport: %w", err)
	}
	ret := &http.Client{Transport: roundTripper}
	if n.httpClient != nil {
		ret.Jar = n.httpClient.Jar
		ret.Timeout = n.httpClient.Timeout
	}
	return ret, nil
}

var _ io.Closer = (*Result)(nil)
