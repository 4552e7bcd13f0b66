package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpconnect/client/auth/mock"
	"github.com/viant/mcpconnect/client/auth/store"
	"github.com/viant/scy/auth/flow"
	"golang.org/x/oauth2"
)

// pkceFlow completes the authorization code grant against the mock server without a browser.
type pkceFlow struct {
	calls   int32
	err     error
	options []flow.Option
}

func (p *pkceFlow) Token(ctx context.Context, config *oauth2.Config, options ...flow.Option) (*oauth2.Token, error) {
	atomic.AddInt32(&p.calls, 1)
	p.options = options
	if p.err != nil {
		return nil, p.err
	}
	verifier := oauth2.GenerateVerifier()
	authURL := config.AuthCodeURL("state-1", oauth2.S256ChallengeOption(verifier))
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := noRedirect.Get(authURL)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return nil, err
	}
	code := location.Query().Get("code")
	if code == "" {
		return nil, fmt.Errorf("no code in %v", location)
	}
	return config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
}

type staticRegistrar struct {
	config *oauth2.Config
	calls  int
}

func (s *staticRegistrar) RegisterClient(ctx context.Context, issuer string) (*oauth2.Config, error) {
	s.calls++
	return s.config, nil
}

func newFixture(t *testing.T) (*mock.HTTPTestAuthorizationServer, *httptest.Server) {
	authServer, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	t.Cleanup(authServer.Close)
	resource := httptest.NewServer(authServer.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write([]byte("ok:" + string(body)))
	})))
	t.Cleanup(resource.Close)
	return authServer, resource
}

func clientConfig(authServer *mock.HTTPTestAuthorizationServer) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     authServer.ClientID,
		ClientSecret: authServer.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authServer.Issuer + "/authorize",
			TokenURL: authServer.Issuer + "/token",
		},
		RedirectURL: "http://localhost:8090/callback",
	}
}

func post(t *testing.T, client *http.Client, URL, body string) (int, string) {
	resp, err := client.Post(URL, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestRoundTripper_AcquiresAndCachesToken(t *testing.T) {
	authServer, resource := newFixture(t)
	aStore := store.NewMemoryStore()
	require.NoError(t, aStore.AddClientConfig(authServer.Issuer, clientConfig(authServer)))
	authFlow := &pkceFlow{}
	rt, err := New(WithStore(aStore), WithAuthFlow(authFlow))
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	status, body := post(t, client, resource.URL, "first")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:first", body)

	status, body = post(t, client, resource.URL, "second")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok:second", body)

	assert.EqualValues(t, 1, atomic.LoadInt32(&authFlow.calls))
	assert.Equal(t, 1, authServer.Count("/token"))
	token, ok := aStore.LookupToken(store.TokenKey{Issuer: authServer.Issuer, Scopes: "openid profile email"})
	require.True(t, ok)
	assert.NotEmpty(t, token.AccessToken)
}

func TestRoundTripper_RefreshesExpiredToken(t *testing.T) {
	authServer, resource := newFixture(t)
	aStore := store.NewMemoryStore()
	require.NoError(t, aStore.AddClientConfig(authServer.Issuer, clientConfig(authServer)))
	authFlow := &pkceFlow{}
	rt, err := New(WithStore(aStore), WithAuthFlow(authFlow))
	require.NoError(t, err)
	client := &http.Client{Transport: rt}

	status, _ := post(t, client, resource.URL, "a")
	require.Equal(t, http.StatusOK, status)

	key := store.TokenKey{Issuer: authServer.Issuer, Scopes: "openid profile email"}
	token, ok := aStore.LookupToken(key)
	require.True(t, ok)
	expired := *token
	expired.Expiry = time.Now().Add(-time.Minute)
	require.NoError(t, aStore.AddToken(key, &expired))

	status, _ = post(t, client, resource.URL, "b")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&authFlow.calls))
	assert.Equal(t, 2, authServer.Count("/token"))
}

func TestRoundTripper_RegistersUnknownClient(t *testing.T) {
	authServer, resource := newFixture(t)
	aStore := store.NewMemoryStore()
	registrar := &staticRegistrar{config: clientConfig(authServer)}
	rt, err := New(WithStore(aStore), WithAuthFlow(&pkceFlow{}), WithRegistrar(registrar))
	require.NoError(t, err)

	status, _ := post(t, &http.Client{Transport: rt}, resource.URL, "x")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, registrar.calls)
	_, ok := aStore.LookupClientConfig(authServer.Issuer)
	assert.True(t, ok)
}

func TestRoundTripper_Errors(t *testing.T) {
	t.Run("auth flow required", func(t *testing.T) {
		_, err := New()
		assert.Error(t, err)
	})

	t.Run("unknown client without registrar", func(t *testing.T) {
		_, resource := newFixture(t)
		rt, err := New(WithAuthFlow(&pkceFlow{}))
		require.NoError(t, err)
		_, err = (&http.Client{Transport: rt}).Get(resource.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client config not found")
	})

	t.Run("auth flow failure", func(t *testing.T) {
		authServer, resource := newFixture(t)
		aStore := store.NewMemoryStore()
		require.NoError(t, aStore.AddClientConfig(authServer.Issuer, clientConfig(authServer)))
		rt, err := New(WithStore(aStore), WithAuthFlow(&pkceFlow{err: fmt.Errorf("user went away")}))
		require.NoError(t, err)
		_, err = (&http.Client{Transport: rt}).Get(resource.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user went away")
	})

	t.Run("challenge without resource metadata", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="x"`)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()
		authFlow := &pkceFlow{}
		rt, err := New(WithAuthFlow(authFlow))
		require.NoError(t, err)
		_, err = (&http.Client{Transport: rt}).Get(server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resource_metadata")
		assert.EqualValues(t, 0, authFlow.calls)
	})
}

func TestRoundTripper_PassesThroughUnprotected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()
	authFlow := &pkceFlow{}
	rt, err := New(WithAuthFlow(authFlow))
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: rt}).Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.EqualValues(t, 0, authFlow.calls)
}

func TestRoundTripper_ForwardsContextFlowOptions(t *testing.T) {
	authServer, resource := newFixture(t)
	aStore := store.NewMemoryStore()
	require.NoError(t, aStore.AddClientConfig(authServer.Issuer, clientConfig(authServer)))
	authFlow := &pkceFlow{}
	rt, err := New(WithStore(aStore), WithAuthFlow(authFlow))
	require.NoError(t, err)

	ctx := WithFlowOptions(context.Background(), flow.WithScopes("offline_access"))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, resource.URL, nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: rt}).Do(request)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"offline_access"}, flow.NewOptions(authFlow.options).Scopes())
}

func TestGetScope(t *testing.T) {
	assert.Equal(t, "", getScope(context.Background()))
	ctx := WithFlowOptions(context.Background(), flow.WithScopes("openid"))
	ctx = WithFlowOptions(ctx, flow.WithScopes("mcp"))
	assert.Equal(t, "openid mcp", getScope(ctx))
	assert.Len(t, getAuthFlowOptions(ctx), 3)
}

func TestParseChallenge(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("WWW-Authenticate", `Bearer realm="r", scope="openid mcp", resource_metadata="https://mcp.example.com/.well-known/oauth-protected-resource"`)
	challenge, err := parseChallenge(resp)
	require.NoError(t, err)
	assert.Equal(t, "openid mcp", challenge.Scope)
	assert.Equal(t, "https://mcp.example.com/.well-known/oauth-protected-resource", challenge.ResourceMetadata)
}
