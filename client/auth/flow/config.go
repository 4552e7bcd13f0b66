package flow

import (
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the loopback port registered with the authorization server.
	DefaultPort = 8090
	// DefaultCallbackPath is the redirect path served by the local listener.
	DefaultCallbackPath = "/callback"
	// DefaultHost is the redirect host.
	DefaultHost = "localhost"
	// DefaultTimeout bounds how long the broker waits for the browser redirect.
	DefaultTimeout = 5 * time.Minute
	// DefaultShutdownGrace is how long the listener waits for the response to flush.
	DefaultShutdownGrace = 2 * time.Second
)

// Config describes the local redirect endpoint used by the Broker.
type Config struct {
	Host          string        `yaml:"host,omitempty" json:"host,omitempty"`
	Port          int           `yaml:"port,omitempty" json:"port,omitempty"`
	CallbackPath  string        `yaml:"callbackPath,omitempty" json:"callbackPath,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace,omitempty" json:"shutdownGrace,omitempty"`
}

// Init fills unset fields with defaults. A negative Timeout disables the deadline.
func (c *Config) Init() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.CallbackPath == "" {
		c.CallbackPath = DefaultCallbackPath
	}
	if !strings.HasPrefix(c.CallbackPath, "/") {
		c.CallbackPath = "/" + c.CallbackPath
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
}

// Address returns the listen address.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RedirectURI returns the redirect URI that must be registered with the authorization server.
func (c Config) RedirectURI() string {
	return "http://" + c.Address() + c.CallbackPath
}
