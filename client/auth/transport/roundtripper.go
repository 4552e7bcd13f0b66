package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/viant/mcp-protocol/oauth2/meta"
	"github.com/viant/mcpconnect/client/auth/store"
	"github.com/viant/scy/auth/flow"
	"golang.org/x/oauth2"
)

// Registrar registers an OAuth client with an authorization server that has no
// client config in the store yet.
type Registrar interface {
	RegisterClient(ctx context.Context, issuer string) (*oauth2.Config, error)
}

// RoundTripper sends requests unauthenticated first and, when challenged with
// 401 Unauthorized, acquires a token for the protected resource and replays the request.
type RoundTripper struct {
	store     store.Store
	authFlow  flow.AuthFlow
	registrar Registrar
	transport http.RoundTripper
	logger    *slog.Logger
	mux       sync.Mutex
}

// New creates a RoundTripper. An AuthFlow is required.
func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport: http.DefaultTransport,
		store:     store.NewMemoryStore(),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.authFlow == nil {
		return nil, fmt.Errorf("auth flow was not configured")
	}
	return ret, nil
}

// Store returns the token store.
func (r *RoundTripper) Store() store.Store {
	return r.store
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	probe := clone(req)
	resp, err := r.transport.RoundTrip(probe)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	ctx := req.Context()
	tok, err := r.Token(ctx, resp)
	if err != nil {
		return nil, err
	}
	retry := clone(req)
	retry.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	return r.transport.RoundTrip(retry)
}

// Token resolves a token for the resource that issued the 401 challenge in resp.
func (r *RoundTripper) Token(ctx context.Context, resp *http.Response) (*oauth2.Token, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	challenge, err := parseChallenge(resp)
	if err != nil {
		return nil, err
	}
	resourceMetadata, err := meta.FetchProtectedResourceMetadata(ctx, challenge.ResourceMetadata, &http.Client{Transport: r.transport})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch protected resource metadata: %w", err)
	}
	scope := challenge.Scope
	if scope == "" {
		scope = getScope(ctx)
	}
	return r.ProtectedResourceToken(ctx, resourceMetadata, scope)
}

// ProtectedResourceToken returns a cached, refreshed or interactively acquired token
// for the first authorization server advertised by resourceMetadata.
func (r *RoundTripper) ProtectedResourceToken(ctx context.Context, resourceMetadata *meta.ProtectedResourceMetadata, scope string) (*oauth2.Token, error) {
	if resourceMetadata == nil || len(resourceMetadata.AuthorizationServers) == 0 {
		return nil, fmt.Errorf("protected resource metadata does not list authorization servers")
	}
	issuer := resourceMetadata.AuthorizationServers[0]
	authorizationServerMetadata, _ := r.store.LookupAuthorizationServerMetadata(issuer)
	var err error
	if authorizationServerMetadata == nil {
		authorizationServerMetadata, err = meta.FetchAuthorizationServerMetadata(ctx, issuer, &http.Client{Transport: r.transport})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch authorization server metadata: %w", err)
		}
		if err = r.store.AddAuthorizationServerMetadata(authorizationServerMetadata); err != nil {
			return nil, err
		}
	}
	issuer = authorizationServerMetadata.Issuer
	clientConfig, err := r.clientConfig(ctx, issuer)
	if err != nil {
		return nil, err
	}

	tokenKey := store.TokenKey{Issuer: issuer, Scopes: scope}
	if cached, _ := r.store.LookupToken(tokenKey); cached != nil {
		if cached.Valid() {
			return cached, nil
		}
		if cached.RefreshToken != "" {
			if refreshed := r.refreshToken(ctx, clientConfig, cached); refreshed != nil {
				if err := r.store.AddToken(tokenKey, refreshed); err != nil {
					return nil, fmt.Errorf("failed to store refreshed token: %w", err)
				}
				return refreshed, nil
			}
		}
	}

	config := *clientConfig
	if scope != "" {
		config.Scopes = strings.Fields(scope)
	}
	r.logger.Debug("interactive authorization required", "issuer", issuer, "scope", scope)
	token, err := r.authFlow.Token(ctx, &config, getAuthFlowOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	if err = r.store.AddToken(tokenKey, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

func (r *RoundTripper) clientConfig(ctx context.Context, issuer string) (*oauth2.Config, error) {
	if clientConfig, ok := r.store.LookupClientConfig(issuer); ok {
		return clientConfig, nil
	}
	if r.registrar == nil {
		return nil, fmt.Errorf("client config not found for issuer %s", issuer)
	}
	clientConfig, err := r.registrar.RegisterClient(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to register client with %s: %w", issuer, err)
	}
	if err = r.store.AddClientConfig(issuer, clientConfig); err != nil {
		return nil, err
	}
	r.logger.Info("registered oauth client", "issuer", issuer, "client_id", clientConfig.ClientID)
	return clientConfig, nil
}

func (r *RoundTripper) refreshToken(ctx context.Context, clientConfig *oauth2.Config, cached *oauth2.Token) *oauth2.Token {
	refreshed, err := clientConfig.TokenSource(ctx, cached).Token()
	if err != nil {
		r.logger.Debug("token refresh failed", "error", err)
		return nil
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cached.RefreshToken
	}
	return refreshed
}
