package mock

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// defaultTokenHandler handles /token requests
func (m *AuthorizationService) defaultTokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = r.FormValue("client_id")
		clientSecret = r.FormValue("client_secret")
	}
	if !m.knownClient(clientID) || clientSecret != m.clientSecret(clientID) {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "invalid client credentials")
		return
	}

	scope := r.FormValue("scope")
	switch r.FormValue("grant_type") {
	case "authorization_code":
		g, ok := m.redeemCode(r.FormValue("code"))
		if !ok || g.clientID != clientID {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "unknown or used authorization code")
			return
		}
		if g.redirectURI != r.FormValue("redirect_uri") {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri mismatch")
			return
		}
		if g.codeChallenge != "" && !verifyChallenge(g.codeChallenge, r.FormValue("code_verifier")) {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "PKCE verification failed")
			return
		}
		scope = g.scope
	case "refresh_token":
		claims, err := m.verifyJWT(r.FormValue("refresh_token"), "refresh_token")
		if err != nil || claims["aud"] != clientID {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "invalid refresh token")
			return
		}
		if scope == "" {
			scope, _ = claims["scope"].(string)
		}
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type")
		return
	}

	expiresIn := 3600
	accessToken, err := m.createJWT(clientID, "access_token", scope, time.Duration(expiresIn)*time.Second)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	refreshToken, err := m.createJWT(clientID, "refresh_token", scope, 24*time.Hour)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	response := map[string]interface{}{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"refresh_token": refreshToken,
		"expires_in":    expiresIn,
	}
	if scope != "" {
		response["scope"] = scope
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(response)
}

// verifyChallenge checks an S256 code_challenge against the presented verifier.
func verifyChallenge(challenge, verifier string) bool {
	if verifier == "" {
		return false
	}
	sum := sha256.Sum256([]byte(verifier))
	return strings.TrimRight(challenge, "=") == base64.RawURLEncoding.EncodeToString(sum[:])
}
