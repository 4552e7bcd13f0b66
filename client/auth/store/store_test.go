package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcp-protocol/oauth2/meta"
	"golang.org/x/oauth2"
)

func testClient() *oauth2.Config {
	return &oauth2.Config{
		ClientID: "client-1",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://auth.example.com/authorize",
			TokenURL: "https://auth.example.com/token",
		},
		RedirectURL: "http://localhost:8090/callback",
	}
}

func TestMemoryStore(t *testing.T) {
	client := testClient()
	aStore := NewMemoryStore(WithClientConfig(client))

	found, ok := aStore.LookupClientConfig("https://auth.example.com")
	require.True(t, ok)
	assert.Equal(t, "client-1", found.ClientID)

	_, ok = aStore.LookupToken(TokenKey{Issuer: "https://auth.example.com"})
	assert.False(t, ok)
	require.NoError(t, aStore.AddToken(TokenKey{Issuer: "https://auth.example.com", Scopes: "mcp"}, &oauth2.Token{AccessToken: "t1"}))
	token, ok := aStore.LookupToken(TokenKey{Issuer: "https://auth.example.com", Scopes: "mcp"})
	require.True(t, ok)
	assert.Equal(t, "t1", token.AccessToken)

	require.NoError(t, aStore.AddAuthorizationServerMetadata(&meta.AuthorizationServerMetadata{Issuer: "https://auth.example.com"}))
	metadata, ok := aStore.LookupAuthorizationServerMetadata("https://auth.example.com")
	require.True(t, ok)
	assert.Equal(t, "https://auth.example.com", metadata.Issuer)
}

func TestFileStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth", "tokens.json")
	first, err := NewFileStore(path)
	require.NoError(t, err)

	key := TokenKey{Issuer: "https://auth.example.com", Scopes: "openid mcp"}
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, first.AddToken(key, &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: expiry}))
	require.NoError(t, first.AddClientConfig("https://auth.example.com", testClient()))

	second, err := NewFileStore(path)
	require.NoError(t, err)
	token, ok := second.LookupToken(key)
	require.True(t, ok)
	assert.Equal(t, "a1", token.AccessToken)
	assert.Equal(t, "r1", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	client, ok := second.LookupClientConfig("https://auth.example.com")
	require.True(t, ok)
	assert.Equal(t, "client-1", client.ClientID)
	assert.Equal(t, "https://auth.example.com/token", client.Endpoint.TokenURL)
}

func TestFileStore_MissingFile(t *testing.T) {
	aStore, err := NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	_, ok := aStore.LookupToken(TokenKey{Issuer: "x"})
	assert.False(t, ok)
}
