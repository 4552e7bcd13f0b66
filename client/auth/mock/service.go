package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"sync"
)

// AuthorizationService is a test server that simulates an OAuth2 authorization server
// supporting PKCE and dynamic client registration.
type AuthorizationService struct {
	PrivateKey       *rsa.PrivateKey
	Issuer           string
	ClientID         string
	ClientSecret     string
	AuthorizedScopes []string
	// DenyAuthorization makes /authorize redirect with error=access_denied instead of a code.
	DenyAuthorization bool

	TokenHandler            func(w http.ResponseWriter, r *http.Request)
	AuthorizeHandler        func(w http.ResponseWriter, r *http.Request)
	MetadataHandler         func(w http.ResponseWriter, r *http.Request)
	RegisterHandler         func(w http.ResponseWriter, r *http.Request)
	ResourceHandler         func(w http.ResponseWriter, r *http.Request)
	ResourceMetadataHandler func(w http.ResponseWriter, r *http.Request)

	mu         sync.Mutex
	sequence   int
	codes      map[string]*grant
	registered map[string]*Registration
	counts     map[string]int
}

type grant struct {
	clientID      string
	redirectURI   string
	codeChallenge string
	scope         string
}

// Option configures the service.
type Option func(s *AuthorizationService)

// WithClient sets the statically provisioned client credentials.
func WithClient(id, secret string) Option {
	return func(s *AuthorizationService) {
		s.ClientID = id
		s.ClientSecret = secret
	}
}

// WithDeniedAuthorization makes every authorization end with access_denied.
func WithDeniedAuthorization() Option {
	return func(s *AuthorizationService) {
		s.DenyAuthorization = true
	}
}

// NewAuthorizationService creates a new mock OAuth2 authorization server
func NewAuthorizationService(opts ...Option) (*AuthorizationService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	service := &AuthorizationService{
		PrivateKey:       privateKey,
		ClientID:         "test_client_id",
		ClientSecret:     "test_client_secret",
		AuthorizedScopes: []string{"openid", "profile", "email"},
		codes:            map[string]*grant{},
		registered:       map[string]*Registration{},
		counts:           map[string]int{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Count returns how many times the given endpoint path was hit.
func (m *AuthorizationService) Count(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[path]
}

func (m *AuthorizationService) hit(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[path]++
}

// Register registers HTTP handlers for all mock endpoints onto the given ServeMux.
func (m *AuthorizationService) Register(mux *http.ServeMux) {
	mux.Handle("/", &Handler{Server: m})
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (m *AuthorizationService) Handler() http.Handler {
	mux := http.NewServeMux()
	m.Register(mux)
	return mux
}
