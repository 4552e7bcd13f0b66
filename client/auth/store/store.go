package store

import (
	"sync"

	"github.com/viant/afs/http"
	"github.com/viant/afs/url"
	"github.com/viant/mcp-protocol/oauth2/meta"
	"golang.org/x/oauth2"
)

// TokenKey identifies a token by issuer and space separated scopes.
type TokenKey struct {
	Issuer string
	Scopes string
}

// Store is a pluggable persistence layer for tokens, client registrations and
// authorization server metadata used by the connection's auth layer.
type Store interface {
	LookupClientConfig(issuer string) (*oauth2.Config, bool)
	AddClientConfig(issuer string, client *oauth2.Config) error
	AddAuthorizationServerMetadata(metadata *meta.AuthorizationServerMetadata) error
	LookupAuthorizationServerMetadata(issuer string) (*meta.AuthorizationServerMetadata, bool)
	AddToken(key TokenKey, token *oauth2.Token) error
	LookupToken(key TokenKey) (*oauth2.Token, bool)
}

// MemoryStoreOption configures the memory store.
type MemoryStoreOption func(*memoryStore)

// WithClientConfig pre-registers a client config under the issuer derived from its auth URL.
func WithClientConfig(client *oauth2.Config) MemoryStoreOption {
	return func(m *memoryStore) {
		m.clients[IssuerOf(client)] = client
	}
}

// IssuerOf returns the issuer base URL of the client's authorization endpoint.
func IssuerOf(client *oauth2.Config) string {
	issuer, _ := url.Base(client.Endpoint.AuthURL, http.SecureScheme)
	return issuer
}

type memoryStore struct {
	mu             sync.RWMutex
	issuerMetadata map[string]*meta.AuthorizationServerMetadata
	clients        map[string]*oauth2.Config
	tokens         map[TokenKey]*oauth2.Token
}

func (m *memoryStore) LookupToken(key TokenKey) (*oauth2.Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[key]
	return token, ok
}

func (m *memoryStore) AddToken(key TokenKey, token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func (m *memoryStore) LookupClientConfig(issuer string) (*oauth2.Config, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.clients[issuer]
	return client, ok
}

func (m *memoryStore) AddClientConfig(issuer string, client *oauth2.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[issuer] = client
	return nil
}

func (m *memoryStore) AddAuthorizationServerMetadata(metadata *meta.AuthorizationServerMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuerMetadata[metadata.Issuer] = metadata
	return nil
}

func (m *memoryStore) LookupAuthorizationServerMetadata(issuer string) (*meta.AuthorizationServerMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metadata, ok := m.issuerMetadata[issuer]
	return metadata, ok
}

// NewMemoryStore creates an in-memory Store.
func NewMemoryStore(options ...MemoryStoreOption) Store {
	ret := newMemoryStore()
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		clients:        map[string]*oauth2.Config{},
		issuerMetadata: map[string]*meta.AuthorizationServerMetadata{},
		tokens:         map[TokenKey]*oauth2.Token{},
	}
}
