package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Challenge returns the WWW-Authenticate value sent with 401 responses.
func (m *AuthorizationService) Challenge(r *http.Request) string {
	issuer := m.issuer(r)
	return fmt.Sprintf(`Bearer realm="%s", scope="%s", resource_metadata="%s"`,
		issuer, strings.Join(m.AuthorizedScopes, " "), issuer+"/resource-metadata")
}

// Protect wraps next so that only requests bearing an access token issued by this
// service reach it.
func (m *AuthorizationService) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.Header().Set("WWW-Authenticate", m.Challenge(r))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Invalid authorization header", http.StatusBadRequest)
			return
		}
		if _, err := m.verifyJWT(parts[1], "access_token"); err != nil {
			w.Header().Set("WWW-Authenticate", m.Challenge(r)+`, error="invalid_token"`)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// defaultResourceHandler simulates a protected resource at /resource
func (m *AuthorizationService) defaultResourceHandler(w http.ResponseWriter, r *http.Request) {
	m.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "This is a protected resource"})
	})).ServeHTTP(w, r)
}
