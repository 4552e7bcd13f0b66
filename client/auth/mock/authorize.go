package mock

import (
	"fmt"
	"net/http"
	"net/url"
)

// defaultAuthorizeHandler handles /authorize requests. The user is assumed to consent
// immediately, so the response redirects straight back with a single-use code.
func (m *AuthorizationService) defaultAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	clientID := query.Get("client_id")
	if !m.knownClient(clientID) {
		http.Error(w, "Invalid client ID", http.StatusBadRequest)
		return
	}
	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "Missing redirect URI", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "Invalid redirect URI", http.StatusBadRequest)
		return
	}
	if method := query.Get("code_challenge_method"); method != "" && method != "S256" {
		http.Error(w, "Unsupported code challenge method", http.StatusBadRequest)
		return
	}
	values := target.Query()
	if state := query.Get("state"); state != "" {
		values.Set("state", state)
	}
	if m.DenyAuthorization {
		values.Set("error", "access_denied")
		values.Set("error_description", "The user denied the request")
		target.RawQuery = values.Encode()
		http.Redirect(w, r, target.String(), http.StatusFound)
		return
	}
	code := m.issueCode(&grant{
		clientID:      clientID,
		redirectURI:   redirectURI,
		codeChallenge: query.Get("code_challenge"),
		scope:         query.Get("scope"),
	})
	values.Set("code", code)
	target.RawQuery = values.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (m *AuthorizationService) issueCode(g *grant) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence++
	code := fmt.Sprintf("test_authorization_code_%d", m.sequence)
	m.codes[code] = g
	return code
}

// redeemCode returns and forgets the grant bound to code.
func (m *AuthorizationService) redeemCode(code string) (*grant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.codes[code]
	delete(m.codes, code)
	return g, ok
}
