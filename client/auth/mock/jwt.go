package mock

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// createJWT creates a signed JWT token for clientID with the given type and expiry
func (m *AuthorizationService) createJWT(clientID, tokenType, scope string, expiry time.Duration) (string, error) {
	now := time.Now()
	m.mu.Lock()
	m.sequence++
	id := fmt.Sprintf("jti-%d", m.sequence)
	m.mu.Unlock()
	claims := jwt.MapClaims{
		"iss": m.Issuer,
		"sub": "test_subject",
		"aud": clientID,
		"exp": now.Add(expiry).Unix(),
		"iat": now.Unix(),
		"jti": id,
		"typ": tokenType,
	}
	if scope != "" {
		claims["scope"] = scope
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(m.PrivateKey)
}

// verifyJWT parses a token signed by this service and checks its type.
func (m *AuthorizationService) verifyJWT(raw, tokenType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return &m.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims["typ"] != tokenType {
		return nil, fmt.Errorf("unexpected token type: %v", claims["typ"])
	}
	return claims, nil
}
