// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Dispatch  DispatchConfig
	Upload    UploadConfig
	Transport TransportConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 3000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default: a dispatch answers only after every send settles.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DispatchConfig holds bulk message delivery settings.
type DispatchConfig struct {
	// BatchWidth is the maximum number of sends in flight per request (default: 5)
	BatchWidth int `env:"BATCH_WIDTH" default:"5"`

	// Strategy is "chunked" (sequential chunks) or "window" (sliding window) (default: chunked)
	Strategy string `env:"DISPATCH_STRATEGY" default:"chunked"`

	// SendTimeout bounds a single send; 0 disables the deadline (default: 30s)
	SendTimeout time.Duration `env:"DISPATCH_SEND_TIMEOUT" default:"30s"`

	// Timeout bounds a whole dispatch request (default: 30m)
	Timeout time.Duration `env:"DISPATCH_TIMEOUT" default:"30m"`

	// MaxConcurrent is the number of upload requests allowed to dispatch at once (default: 4)
	MaxConcurrent int `env:"DISPATCH_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a dispatch slot (default: 30s)
	MaxWaitTime time.Duration `env:"DISPATCH_MAX_WAIT_TIME" default:"30s"`

	// MessageTemplate is used when a request does not carry its own message.
	// The token {nome} is replaced by the contact name.
	MessageTemplate string `env:"DISPATCH_MESSAGE_TEMPLATE" default:"Olá, {nome}! Esta é uma mensagem de teste disparada via API."`
}

// UploadConfig holds contact file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 1MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"1000000"`
}

// TransportConfig selects and configures the messaging transport binding.
type TransportConfig struct {
	// Mode is "gateway" (HTTP WhatsApp gateway) or "dryrun" (log only) (default: gateway)
	Mode string `env:"TRANSPORT_MODE" default:"gateway"`

	// GatewayURL is the base URL of the WhatsApp gateway (required in gateway mode)
	GatewayURL string `env:"GATEWAY_URL"`

	// GatewayToken is sent as a bearer token to the gateway
	GatewayToken string `env:"GATEWAY_TOKEN"`

	// GatewayTimeout is the HTTP client timeout for gateway calls (default: 20s)
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" default:"20s"`

	// StatusInterval is how often the gateway connection state is polled (default: 2s)
	StatusInterval time.Duration `env:"GATEWAY_STATUS_INTERVAL" default:"2s"`

	// RecipientSuffix is appended to the phone number to form the chat ID (default: @c.us)
	RecipientSuffix string `env:"GATEWAY_RECIPIENT_SUFFIX" default:"@c.us"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins lists origins allowed to call the API from a browser
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
