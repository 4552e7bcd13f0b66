package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpconnect/client/auth/flow"
	"github.com/viant/mcp-protocol/oauth2/meta"
	"github.com/viant/mcpconnect/client/auth/mock"
	"github.com/viant/mcpconnect/client/auth/store"
	"golang.org/x/oauth2"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// followingLauncher plays the browser: it opens the authorization URL and follows the
// redirect back to the broker.
func followingLauncher(ctx context.Context, URL string) error {
	go func() {
		resp, err := http.Get(URL)
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	return nil
}

func newBroker(t *testing.T, launcher flow.Launcher) *flow.Broker {
	return flow.New(flow.Config{Host: "127.0.0.1", Port: freePort(t), Timeout: 5 * time.Second}, flow.WithLauncher(launcher))
}

func staticConfig(server *mock.HTTPTestAuthorizationServer) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     server.ClientID,
		ClientSecret: server.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  server.Issuer + "/authorize",
			TokenURL: server.Issuer + "/token",
		},
		Scopes: []string{"openid"},
	}
}

func TestProvider_Token(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()

	aProvider := New(newBroker(t, followingLauncher))
	defer aProvider.Close()
	token, err := aProvider.Token(context.Background(), staticConfig(server))
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.NotEmpty(t, token.RefreshToken)
	assert.True(t, token.Valid())
	assert.Equal(t, 1, server.Count("/authorize"))
	assert.Equal(t, 1, server.Count("/token"))
}

func TestProvider_RegisterClient(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()

	aProvider := New(newBroker(t, followingLauncher), WithClientMetadata(ClientMetadata{ClientName: "test", Scope: "openid profile"}))
	defer aProvider.Close()
	config, err := aProvider.RegisterClient(context.Background(), server.Issuer)
	require.NoError(t, err)
	assert.NotEmpty(t, config.ClientID)
	assert.Empty(t, config.ClientSecret)
	assert.Equal(t, server.Issuer+"/token", config.Endpoint.TokenURL)
	assert.Equal(t, aProvider.RedirectURL(), config.RedirectURL)
	assert.Equal(t, []string{"openid", "profile"}, config.Scopes)

	registrations := server.Registrations()
	require.Len(t, registrations, 1)
	assert.Equal(t, "test", registrations[0].ClientName)
	assert.Equal(t, []string{aProvider.RedirectURL()}, registrations[0].RedirectURIs)

	info, ok := aProvider.ClientInformation(server.Issuer)
	require.True(t, ok)
	assert.Equal(t, config.ClientID, info.ClientID)

	token, err := aProvider.Token(context.Background(), config)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)

	discovered, ok := aProvider.Store().LookupAuthorizationServerMetadata(server.Issuer)
	require.True(t, ok)
	assert.Equal(t, server.Issuer+"/register", discovered.RegistrationEndpoint)
}

func TestProvider_RegisterClient_UsesStoredMetadata(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer()
	require.NoError(t, err)
	defer server.Close()

	aStore := store.NewMemoryStore()
	require.NoError(t, aStore.AddAuthorizationServerMetadata(&meta.AuthorizationServerMetadata{
		Issuer:                server.Issuer,
		AuthorizationEndpoint: server.Issuer + "/authorize",
		TokenEndpoint:         server.Issuer + "/token",
		RegistrationEndpoint:  server.Issuer + "/register",
	}))
	aProvider := New(newBroker(t, followingLauncher), WithStore(aStore))
	defer aProvider.Close()
	config, err := aProvider.RegisterClient(context.Background(), server.Issuer)
	require.NoError(t, err)
	assert.NotEmpty(t, config.ClientID)
	assert.Equal(t, server.Issuer+"/authorize", config.Endpoint.AuthURL)
	assert.Equal(t, 0, server.Count("/.well-known/oauth-authorization-server"))
	assert.Equal(t, 1, server.Count("/register"))
}

func TestProvider_RegisterClient_Unsupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"issuer": "x", "token_endpoint": "x/token"})
	}))
	defer server.Close()
	aProvider := New(newBroker(t, followingLauncher))
	_, err := aProvider.RegisterClient(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dynamic client registration")
}

func TestProvider_Token_Denied(t *testing.T) {
	server, err := mock.NewHTTPTestAuthorizationServer(mock.WithDeniedAuthorization())
	require.NoError(t, err)
	defer server.Close()

	aProvider := New(newBroker(t, followingLauncher))
	_, err = aProvider.Token(context.Background(), staticConfig(server))
	require.Error(t, err)
	assert.True(t, errors.Is(err, flow.ErrNoAuthorizationCode))
	assert.Contains(t, err.Error(), "access_denied")
	assert.Equal(t, 0, server.Count("/token"))
}

func TestProvider_Token_StateMismatch(t *testing.T) {
	var broker *flow.Broker
	broker = newBroker(t, func(ctx context.Context, _ string) error {
		go func() {
			resp, err := http.Get(broker.RedirectURI() + "?code=abc&state=forged")
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	})
	aProvider := New(broker)
	_, err := aProvider.Token(context.Background(), &oauth2.Config{ClientID: "c", Endpoint: oauth2.Endpoint{AuthURL: "http://127.0.0.1:1/authorize", TokenURL: "http://127.0.0.1:1/token"}})
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestProvider_Close(t *testing.T) {
	broker := newBroker(t, func(ctx context.Context, URL string) error { return nil })
	aProvider := New(broker)
	errs := make(chan error, 1)
	go func() {
		_, err := aProvider.Token(context.Background(), &oauth2.Config{ClientID: "c", Endpoint: oauth2.Endpoint{AuthURL: "http://127.0.0.1:1/authorize"}})
		errs <- err
	}()

	address := broker.Config().Address()
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", address)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, aProvider.Close())
	require.NoError(t, aProvider.Close())
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("token acquisition was not abandoned")
	}

	require.Eventually(t, func() bool {
		ln, err := net.Listen("tcp", address)
		if err != nil {
			return false
		}
		_ = ln.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	_, err := aProvider.Token(context.Background(), &oauth2.Config{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestProvider_Accessors(t *testing.T) {
	broker := newBroker(t, followingLauncher)
	aProvider := New(broker, WithClientMetadata(ClientMetadata{Scope: "mcp"}))
	assert.Equal(t, broker.RedirectURI(), aProvider.RedirectURL())
	metadata := aProvider.ClientMetadata()
	assert.Equal(t, "mcpconnect", metadata.ClientName)
	assert.Equal(t, "none", metadata.TokenEndpointAuthMethod)
	assert.Equal(t, []string{"code"}, metadata.ResponseTypes)
	assert.NotNil(t, aProvider.Store())
	_, ok := aProvider.Tokens("https://auth.example.com", "mcp")
	assert.False(t, ok)
}
