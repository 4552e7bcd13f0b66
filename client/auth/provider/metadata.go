package provider

import "strings"

// ClientMetadata is the RFC 7591 client metadata sent on dynamic registration.
type ClientMetadata struct {
	ClientName              string   `yaml:"clientName,omitempty" json:"client_name,omitempty"`
	ClientURI               string   `yaml:"clientURI,omitempty" json:"client_uri,omitempty"`
	RedirectURIs            []string `yaml:"redirectURIs,omitempty" json:"redirect_uris"`
	GrantTypes              []string `yaml:"grantTypes,omitempty" json:"grant_types,omitempty"`
	ResponseTypes           []string `yaml:"responseTypes,omitempty" json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `yaml:"tokenEndpointAuthMethod,omitempty" json:"token_endpoint_auth_method,omitempty"`
	Scope                   string   `yaml:"scope,omitempty" json:"scope,omitempty"`
}

// Init fills defaults for a public native client redirected to redirectURI.
func (m *ClientMetadata) Init(redirectURI string) {
	if m.ClientName == "" {
		m.ClientName = "mcpconnect"
	}
	if len(m.RedirectURIs) == 0 && redirectURI != "" {
		m.RedirectURIs = []string{redirectURI}
	}
	if len(m.GrantTypes) == 0 {
		m.GrantTypes = []string{"authorization_code", "refresh_token"}
	}
	if len(m.ResponseTypes) == 0 {
		m.ResponseTypes = []string{"code"}
	}
	if m.TokenEndpointAuthMethod == "" {
		m.TokenEndpointAuthMethod = "none"
	}
}

// Scopes returns the requested scopes as a list.
func (m *ClientMetadata) Scopes() []string {
	return strings.Fields(m.Scope)
}

// ClientInformation is what the authorization server returned for a registered client.
type ClientInformation struct {
	ClientID              string `json:"client_id"`
	ClientSecret          string `json:"client_secret,omitempty"`
	ClientIDIssuedAt      int64  `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt int64  `json:"client_secret_expires_at,omitempty"`
}
