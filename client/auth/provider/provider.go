package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/mcpconnect/client/auth/flow"
	"github.com/viant/mcpconnect/client/auth/store"
	scyflow "github.com/viant/scy/auth/flow"
	"golang.org/x/oauth2"
)

var (
	// ErrStateMismatch is returned when the redirect carries a state other than the one sent.
	ErrStateMismatch = errors.New("authorization state mismatch")
	// ErrClosed is returned by a Provider after Close.
	ErrClosed = errors.New("provider closed")
)

// Provider is the OAuth client of the modern transport. It implements scy's flow.AuthFlow.
type Provider struct {
	broker      *flow.Broker
	metadata    ClientMetadata
	store       store.Store
	httpClient  *http.Client
	logger      *slog.Logger
	mux         sync.Mutex
	closed      bool
	cancels     map[int]context.CancelFunc
	seq         int
	information map[string]*ClientInformation
}

var _ scyflow.AuthFlow = (*Provider)(nil)

// New creates a Provider whose interactive step runs on broker.
func New(broker *flow.Broker, options ...Option) *Provider {
	ret := &Provider{
		broker:      broker,
		logger:      slog.Default(),
		httpClient:  http.DefaultClient,
		cancels:     map[int]context.CancelFunc{},
		information: map[string]*ClientInformation{},
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.store == nil {
		ret.store = store.NewMemoryStore()
	}
	ret.metadata.Init(broker.RedirectURI())
	return ret
}

// RedirectURL returns the loopback redirect URI served by the broker.
func (p *Provider) RedirectURL() string {
	return p.broker.RedirectURI()
}

// ClientMetadata returns the registration metadata.
func (p *Provider) ClientMetadata() ClientMetadata {
	return p.metadata
}

// Store returns the token and client store.
func (p *Provider) Store() store.Store {
	return p.store
}

// ClientInformation returns the registration issued by issuer, if any.
func (p *Provider) ClientInformation(issuer string) (*ClientInformation, bool) {
	p.mux.Lock()
	defer p.mux.Unlock()
	info, ok := p.information[issuer]
	return info, ok
}

// Tokens returns the stored token for issuer and space separated scopes.
func (p *Provider) Tokens(issuer, scopes string) (*oauth2.Token, bool) {
	return p.store.LookupToken(store.TokenKey{Issuer: issuer, Scopes: scopes})
}

// Token runs the authorization code grant with PKCE: the user authorizes in the browser,
// the broker captures the redirect and the code is exchanged at the token endpoint.
func (p *Provider) Token(ctx context.Context, config *oauth2.Config, options ...scyflow.Option) (*oauth2.Token, error) {
	ctx, done, err := p.track(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	cfg := *config
	cfg.RedirectURL = p.RedirectURL()
	if scopes := scyflow.NewOptions(options).Scopes(); len(scopes) > 0 {
		cfg.Scopes = scopes
	} else if len(cfg.Scopes) == 0 {
		cfg.Scopes = p.metadata.Scopes()
	}

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authorizationURL := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	result, err := p.broker.AcquireAuthorizationCode(ctx, authorizationURL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire authorization code: %w", err)
	}
	if result.State != state {
		return nil, ErrStateMismatch
	}
	token, err := cfg.Exchange(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient), result.Code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	p.logger.Debug("authorization code exchanged", "client_id", cfg.ClientID)
	return token, nil
}

// track derives a context that Close cancels.
func (p *Provider) track(ctx context.Context) (context.Context, func(), error) {
	p.mux.Lock()
	defer p.mux.Unlock()
	if p.closed {
		return nil, nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	p.seq++
	id := p.seq
	p.cancels[id] = cancel
	return ctx, func() {
		p.mux.Lock()
		delete(p.cancels, id)
		p.mux.Unlock()
		cancel()
	}, nil
}

// Close abandons any in-flight authorization, which releases the broker's listener.
func (p *Provider) Close() error {
	p.mux.Lock()
	defer p.mux.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for id, cancel := range p.cancels {
		cancel()
		delete(p.cancels, id)
	}
	return nil
}
