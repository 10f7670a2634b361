package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the loader reads so tests are not affected
// by the host environment. Empty values are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SERVER_HOST", "SERVER_PORT", "PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
		"BATCH_WIDTH", "DISPATCH_STRATEGY", "DISPATCH_SEND_TIMEOUT", "DISPATCH_TIMEOUT",
		"DISPATCH_MAX_CONCURRENT", "DISPATCH_MAX_WAIT_TIME", "DISPATCH_MESSAGE_TEMPLATE",
		"UPLOAD_MAX_FILE_SIZE",
		"TRANSPORT_MODE", "GATEWAY_URL", "GATEWAY_TOKEN", "GATEWAY_TIMEOUT",
		"GATEWAY_STATUS_INTERVAL", "GATEWAY_RECIPIENT_SUFFIX",
		"TRUSTED_PROXIES", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000, ShutdownTimeout: time.Second},
		Dispatch: DispatchConfig{
			BatchWidth:    5,
			Strategy:      StrategyWindow,
			Timeout:       time.Minute,
			MaxConcurrent: 1,
			MaxWaitTime:   time.Second,
		},
		Upload:    UploadConfig{MaxFileSize: 1},
		Transport: TransportConfig{Mode: ModeDryRun},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSPORT_MODE", "dryrun")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Dispatch.BatchWidth != 5 {
		t.Errorf("Dispatch.BatchWidth = %d, want %d", cfg.Dispatch.BatchWidth, 5)
	}
	if cfg.Dispatch.Strategy != StrategyChunked {
		t.Errorf("Dispatch.Strategy = %q, want %q", cfg.Dispatch.Strategy, StrategyChunked)
	}
	if cfg.Upload.MaxFileSize != 1000000 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 1000000)
	}
	if !strings.Contains(cfg.Dispatch.MessageTemplate, "{nome}") {
		t.Errorf("Dispatch.MessageTemplate = %q, want it to contain {nome}", cfg.Dispatch.MessageTemplate)
	}
	if cfg.Transport.RecipientSuffix != "@c.us" {
		t.Errorf("Transport.RecipientSuffix = %q, want %q", cfg.Transport.RecipientSuffix, "@c.us")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSPORT_MODE", "gateway")
	t.Setenv("GATEWAY_URL", "http://localhost:8081")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BATCH_WIDTH", "10")
	t.Setenv("DISPATCH_STRATEGY", "window")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Dispatch.BatchWidth != 10 {
		t.Errorf("Dispatch.BatchWidth = %d, want %d", cfg.Dispatch.BatchWidth, 10)
	}
	if cfg.Dispatch.Strategy != StrategyWindow {
		t.Errorf("Dispatch.Strategy = %q, want %q", cfg.Dispatch.Strategy, StrategyWindow)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSPORT_MODE", "dryrun")
	t.Setenv("PORT", "4000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 4000)
	}
}

func TestLoad_GatewayRequiresURL(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing GATEWAY_URL")
	}
	if !strings.Contains(err.Error(), "GATEWAY_URL") {
		t.Errorf("error should mention GATEWAY_URL: %v", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSPORT_MODE", "dryrun")
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("DISPATCH_SEND_TIMEOUT", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Dispatch.SendTimeout != 90*time.Second {
		t.Errorf("Dispatch.SendTimeout = %v, want %v", cfg.Dispatch.SendTimeout, 90*time.Second)
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSPORT_MODE", "dryrun")
	t.Setenv("BATCH_WIDTH", "five")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric BATCH_WIDTH")
	}
	if !strings.Contains(err.Error(), "BATCH_WIDTH") {
		t.Errorf("error should mention BATCH_WIDTH: %v", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSPORT_MODE", "dryrun")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero batch width", func(c *Config) { c.Dispatch.BatchWidth = 0 }, "BATCH_WIDTH"},
		{"unknown strategy", func(c *Config) { c.Dispatch.Strategy = "burst" }, "DISPATCH_STRATEGY"},
		{"negative send timeout", func(c *Config) { c.Dispatch.SendTimeout = -time.Second }, "DISPATCH_SEND_TIMEOUT"},
		{"unknown transport", func(c *Config) { c.Transport.Mode = "smtp" }, "TRANSPORT_MODE"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error should mention %s: %v", tt.mention, err)
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() on valid config = %v", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksToken(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.GatewayToken = "s3cr3t-token"

	str := cfg.String()
	if strings.Contains(str, "s3cr3t") {
		t.Error("String() should mask gateway token")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
