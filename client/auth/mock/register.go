package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Registration is a dynamically registered client (RFC 7591).
type Registration struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
}

// Registrations returns the dynamically registered clients.
func (m *AuthorizationService) Registrations() []*Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ret []*Registration
	for _, registration := range m.registered {
		ret = append(ret, registration)
	}
	return ret
}

func (m *AuthorizationService) knownClient(clientID string) bool {
	if clientID == "" {
		return false
	}
	if clientID == m.ClientID {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registered[clientID]
	return ok
}

// clientSecret returns the expected secret for clientID; public clients have none.
func (m *AuthorizationService) clientSecret(clientID string) string {
	if clientID == m.ClientID {
		return m.ClientSecret
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if registration, ok := m.registered[clientID]; ok {
		return registration.ClientSecret
	}
	return ""
}

// defaultRegisterHandler handles /register requests
func (m *AuthorizationService) defaultRegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	registration := &Registration{}
	if err := json.NewDecoder(r.Body).Decode(registration); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "malformed JSON body")
		return
	}
	if len(registration.RedirectURIs) == 0 {
		writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uris is required")
		return
	}
	if registration.TokenEndpointAuthMethod == "" {
		registration.TokenEndpointAuthMethod = "none"
	}
	m.mu.Lock()
	m.sequence++
	registration.ClientID = fmt.Sprintf("registered_client_%d", m.sequence)
	if registration.TokenEndpointAuthMethod != "none" {
		registration.ClientSecret = fmt.Sprintf("registered_secret_%d", m.sequence)
	}
	registration.ClientIDIssuedAt = time.Now().Unix()
	m.registered[registration.ClientID] = registration
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registration)
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "error_description": description})
}
