package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/viant/mcp-protocol/oauth2/meta"
	"golang.org/x/oauth2"
)

// RegisterClient registers the provider's ClientMetadata with issuer and returns the
// resulting client config.
func (p *Provider) RegisterClient(ctx context.Context, issuer string) (*oauth2.Config, error) {
	ctx, done, err := p.track(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	metadata, err := p.serverMetadata(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if metadata.RegistrationEndpoint == "" {
		return nil, fmt.Errorf("authorization server %s does not support dynamic client registration", issuer)
	}
	body, err := json.Marshal(p.metadata)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, metadata.RegistrationEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	response, err := p.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to register client: %w", err)
	}
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client registration failed: %s: %s", response.Status, bytes.TrimSpace(data))
	}
	info := &ClientInformation{}
	if err = json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("invalid client registration response: %w", err)
	}
	if info.ClientID == "" {
		return nil, fmt.Errorf("client registration response has no client_id")
	}
	p.mux.Lock()
	p.information[issuer] = info
	p.mux.Unlock()

	authStyle := oauth2.AuthStyleInHeader
	if info.ClientSecret == "" {
		authStyle = oauth2.AuthStyleInParams
	}
	return &oauth2.Config{
		ClientID:     info.ClientID,
		ClientSecret: info.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   metadata.AuthorizationEndpoint,
			TokenURL:  metadata.TokenEndpoint,
			AuthStyle: authStyle,
		},
		RedirectURL: p.RedirectURL(),
		Scopes:      p.metadata.Scopes(),
	}, nil
}

// serverMetadata returns the RFC 8414 metadata of issuer, discovering it when the store has none.
func (p *Provider) serverMetadata(ctx context.Context, issuer string) (*meta.AuthorizationServerMetadata, error) {
	if metadata, ok := p.store.LookupAuthorizationServerMetadata(issuer); ok && metadata != nil {
		return metadata, nil
	}
	metadata, err := meta.FetchAuthorizationServerMetadata(ctx, issuer, p.httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to discover authorization server %s: %w", issuer, err)
	}
	if err = p.store.AddAuthorizationServerMetadata(metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}
