package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/mcpconnect/client/auth/flow/browser"
	"github.com/viant/mcpconnect/internal/instrumentation"
)

var (
	// ErrNoAuthorizationCode is returned when the redirect carries no code parameter.
	ErrNoAuthorizationCode = errors.New("no authorization code provided")
	// ErrAuthorizationTimeout is returned when no redirect arrives before the configured deadline.
	ErrAuthorizationTimeout = errors.New("authorization timed out")
)

// Launcher presents the authorization URL to the user.
type Launcher func(ctx context.Context, URL string) error

// AuthorizationRequest describes one interactive authorization.
type AuthorizationRequest struct {
	AuthorizationURL string
	RedirectURI      string
	Port             int
}

// AuthorizationResult is the outcome of a successful redirect.
type AuthorizationResult struct {
	Code  string
	State string
}

type outcome struct {
	result *AuthorizationResult
	err    error
}

// Broker acquires an authorization code by running a single-use loopback listener and
// sending the user's browser to the authorization server.
type Broker struct {
	config   Config
	launcher Launcher
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	mux      sync.Mutex
}

// Option configures a Broker.
type Option func(b *Broker)

// WithLauncher overrides the browser launcher.
func WithLauncher(launcher Launcher) Option {
	return func(b *Broker) {
		b.launcher = launcher
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

// WithMetrics sets metric instruments
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(b *Broker) {
		b.metrics = metrics
	}
}

// New creates a Broker.
func New(config Config, options ...Option) *Broker {
	config.Init()
	ret := &Broker{
		config:   config,
		launcher: browser.Open,
		logger:   slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.metrics == nil {
		ret.metrics = instrumentation.Default()
	}
	return ret
}

// Config returns the broker configuration.
func (b *Broker) Config() Config {
	return b.config
}

// RedirectURI returns the redirect URI served by the broker.
func (b *Broker) RedirectURI() string {
	return b.config.RedirectURI()
}

// AcquireAuthorizationCode binds the loopback listener, opens the browser at
// authorizationURL and waits for the first redirect. The listener is closed before it returns.
func (b *Broker) AcquireAuthorizationCode(ctx context.Context, authorizationURL string) (*AuthorizationResult, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	request := &AuthorizationRequest{
		AuthorizationURL: authorizationURL,
		RedirectURI:      b.config.RedirectURI(),
		Port:             b.config.Port,
	}
	listener, err := net.Listen("tcp", b.config.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", b.config.Address(), err)
	}
	// Serve may not have taken ownership of the listener yet when Shutdown runs.
	defer listener.Close()
	handler := &callback{path: b.config.CallbackPath, result: make(chan outcome, 1)}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()
	defer b.shutdown(server)

	b.metrics.RecordAuthorizationStarted(ctx)
	b.logger.Info("waiting for authorization redirect", "redirect_uri", request.RedirectURI)
	if err = b.launcher(ctx, request.AuthorizationURL); err != nil {
		b.logger.Warn("unable to open browser, navigate to the authorization URL manually",
			"url", request.AuthorizationURL, "error", err)
	}

	var deadline <-chan time.Time
	if b.config.Timeout > 0 {
		timer := time.NewTimer(b.config.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case out := <-handler.result:
		if out.err != nil {
			b.metrics.RecordCallback(ctx, instrumentation.OutcomeDenied)
			return nil, out.err
		}
		b.metrics.RecordCallback(ctx, instrumentation.OutcomeSuccess)
		return out.result, nil
	case err = <-served:
		return nil, fmt.Errorf("authorization listener stopped: %w", err)
	case <-deadline:
		b.metrics.RecordCallback(ctx, instrumentation.OutcomeTimeout)
		return nil, fmt.Errorf("%w after %s", ErrAuthorizationTimeout, b.config.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Broker) shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		_ = server.Close()
	}
}

// callback handles exactly one redirect and publishes it on result.
type callback struct {
	path    string
	handled atomic.Bool
	result  chan outcome
}

func (c *callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c.path != "/" && r.URL.Path != c.path {
		http.NotFound(w, r)
		return
	}
	if !c.handled.CompareAndSwap(false, true) {
		http.Error(w, "authorization already processed", http.StatusGone)
		return
	}
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		err := ErrNoAuthorizationCode
		if reason := query.Get("error"); reason != "" {
			if description := query.Get("error_description"); description != "" {
				reason += ": " + description
			}
			err = fmt.Errorf("%w: %s", ErrNoAuthorizationCode, reason)
		}
		writePage(w, http.StatusBadRequest, failurePage, err.Error())
		c.result <- outcome{err: err}
		return
	}
	writePage(w, http.StatusOK, successPage, nil)
	c.result <- outcome{result: &AuthorizationResult{Code: code, State: query.Get("state")}}
}
