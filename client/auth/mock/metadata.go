package mock

import (
	"encoding/json"
	"net/http"
)

func (m *AuthorizationService) issuer(r *http.Request) string {
	if m.Issuer != "" {
		return m.Issuer
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// defaultMetadataHandler serves RFC 8414 authorization server metadata.
func (m *AuthorizationService) defaultMetadataHandler(w http.ResponseWriter, r *http.Request) {
	issuer := m.issuer(r)
	metadata := map[string]interface{}{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "/authorize",
		"token_endpoint":                        issuer + "/token",
		"registration_endpoint":                 issuer + "/register",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post", "none"},
		"scopes_supported":                      m.AuthorizedScopes,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metadata)
}

// defaultResourceMetadataHandler serves RFC 9728 protected resource metadata naming
// this service as the only authorization server.
func (m *AuthorizationService) defaultResourceMetadataHandler(w http.ResponseWriter, r *http.Request) {
	issuer := m.issuer(r)
	metadata := map[string]interface{}{
		"resource":                 issuer + "/resource",
		"authorization_servers":    []string{issuer},
		"scopes_supported":         m.AuthorizedScopes,
		"bearer_methods_supported": []string{"header"},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metadata)
}
