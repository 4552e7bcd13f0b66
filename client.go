package mcpconnect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/viant/scy/auth/authorizer"
	"golang.org/x/oauth2"

	"github.com/viant/mcpconnect/client"
	"github.com/viant/mcpconnect/client/auth/flow"
	"github.com/viant/mcpconnect/client/auth/provider"
	"github.com/viant/mcpconnect/client/auth/store"
	"github.com/viant/mcpconnect/internal/instrumentation"
	"github.com/viant/mcpconnect/negotiator"
)

// ClientOptions
//
// defines options for connecting an MCP client.
type ClientOptions struct {
	Name            string        `yaml:"name" json:"name,omitempty"  short:"n" long:"name" description:"mcp client name"`
	Version         string        `yaml:"version,omitempty" json:"version,omitempty"  short:"v" long:"version" description:"mcp client version"`
	ProtocolVersion string        `yaml:"protocol,omitempty" json:"protocol,omitempty"  short:"p" long:"protocol" description:"mcp protocol"`
	URL             string        `yaml:"url" json:"url"  short:"u" long:"url" description:"mcp server url"`
	LegacyURL       string        `yaml:"legacyURL,omitempty" json:"legacyURL,omitempty"  long:"legacy-url" description:"sse endpoint when it differs from url"`
	AttemptTimeout  time.Duration `yaml:"attemptTimeout,omitempty" json:"attemptTimeout,omitempty"  long:"attempt-timeout" description:"timeout of each transport handshake"`
	Auth            *ClientAuth   `yaml:"auth,omitempty" json:"auth,omitempty" group:"auth" namespace:"auth"`

	// Logger, Metrics and HTTPClient are runtime collaborators, not configuration.
	Logger     *slog.Logger             `yaml:"-" json:"-"`
	Metrics    *instrumentation.Metrics `yaml:"-" json:"-"`
	HTTPClient *http.Client             `yaml:"-" json:"-"`
}

// ClientAuth defines OAuth options of the modern transport.
type ClientAuth struct {
	OAuth2ConfigURL []string                `yaml:"oauth2ConfigURL,omitempty" json:"oauth2ConfigURL,omitempty"  short:"c" long:"config" description:"oauth2 client config file"`
	EncryptionKey   string                  `yaml:"encryptionKey,omitempty" json:"encryptionKey,omitempty"  short:"k" long:"key" description:"encryption key"`
	StorePath       string                  `yaml:"storePath,omitempty" json:"storePath,omitempty"  long:"store" description:"token store file"`
	Redirect        flow.Config             `yaml:"redirect,omitempty" json:"redirect,omitempty" group:"redirect" namespace:"redirect"`
	Client          provider.ClientMetadata `yaml:"client,omitempty" json:"client,omitempty" group:"client" namespace:"client"`

	// Store allows injecting a token store shared across connections.
	Store store.Store `yaml:"-" json:"-"`
	// Launcher overrides the browser launcher.
	Launcher flow.Launcher `yaml:"-" json:"-"`
}

// Init sets defaults.
func (c *ClientOptions) Init() {
	if c.Name == "" {
		c.Name = "mcpconnect"
	}
	if c.Version == "" {
		c.Version = "0.1"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = instrumentation.Default()
	}
	if c.Auth != nil {
		c.Auth.Redirect.Init()
	}
}

// LoadClientOptions parses JSON encoded options.
func LoadClientOptions(data []byte) (*ClientOptions, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse client options: %w", err)
	}
	ret := &ClientOptions{}
	if err := k.UnmarshalWithConf("", ret, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to decode client options: %w", err)
	}
	return ret, nil
}

// Connect negotiates a transport with options.URL and returns an initialized connection.
func Connect(ctx context.Context, options *ClientOptions) (*negotiator.Result, error) {
	if options == nil || options.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	options.Init()
	aNegotiator, err := options.Negotiator(ctx)
	if err != nil {
		return nil, err
	}
	return aNegotiator.Negotiate(ctx, options.URL)
}

// Negotiator builds a negotiator configured by options.
func (c *ClientOptions) Negotiator(ctx context.Context) (*negotiator.Negotiator, error) {
	c.Init()
	opts := []negotiator.Option{
		negotiator.WithClientInfo(c.Name, c.Version),
		negotiator.WithLogger(c.Logger),
		negotiator.WithMetrics(c.Metrics),
		negotiator.WithAttemptTimeout(c.AttemptTimeout),
	}
	if c.ProtocolVersion != "" {
		opts = append(opts, negotiator.WithClientOptions(client.WithProtocolVersion(c.ProtocolVersion)))
	}
	if c.LegacyURL != "" {
		opts = append(opts, negotiator.WithLegacyURL(c.LegacyURL))
	}
	if c.HTTPClient != nil {
		opts = append(opts, negotiator.WithHTTPClient(c.HTTPClient))
	}
	if c.Auth != nil {
		factory, err := c.providerFactory(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, negotiator.WithProviderFactory(factory))
	}
	return negotiator.New(opts...), nil
}

// providerFactory resolves the token store once so tokens survive across attempts.
func (c *ClientOptions) providerFactory(ctx context.Context) (negotiator.ProviderFactory, error) {
	authStore, err := c.authStore(ctx)
	if err != nil {
		return nil, err
	}
	return func() (*provider.Provider, error) {
		brokerOptions := []flow.Option{flow.WithLogger(c.Logger), flow.WithMetrics(c.Metrics)}
		if c.Auth.Launcher != nil {
			brokerOptions = append(brokerOptions, flow.WithLauncher(c.Auth.Launcher))
		}
		broker := flow.New(c.Auth.Redirect, brokerOptions...)
		providerOptions := []provider.Option{
			provider.WithStore(authStore),
			provider.WithClientMetadata(c.Auth.Client),
			provider.WithLogger(c.Logger),
		}
		if c.HTTPClient != nil {
			providerOptions = append(providerOptions, provider.WithHTTPClient(c.HTTPClient))
		}
		return provider.New(broker, providerOptions...), nil
	}, nil
}

// authStore loads preconfigured OAuth2 clients into the configured store.
func (c *ClientOptions) authStore(ctx context.Context) (store.Store, error) {
	var configs []*oauth2.Config
	for _, raw := range c.Auth.OAuth2ConfigURL { // load oauth client for each config URL
		configURL := raw
		if c.Auth.EncryptionKey != "" {
			configURL += "|" + c.Auth.EncryptionKey
		}
		anAuthorizer := authorizer.New()
		oauthCfg := &authorizer.OAuthConfig{ConfigURL: configURL}
		if err := anAuthorizer.EnsureConfig(ctx, oauthCfg); err != nil {
			return nil, fmt.Errorf("failed to load oauth2 config %q: %w", raw, err)
		}
		configs = append(configs, oauthCfg.Config)
	}
	authStore := c.Auth.Store
	if authStore == nil {
		if c.Auth.StorePath == "" {
			authStore = store.NewMemoryStore()
		} else {
			fileStore, err := store.NewFileStore(c.Auth.StorePath)
			if err != nil {
				return nil, err
			}
			authStore = fileStore
		}
	}
	for _, config := range configs {
		if err := authStore.AddClientConfig(store.IssuerOf(config), config); err != nil {
			return nil, err
		}
	}
	return authStore, nil
}
