package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Dispatch strategies accepted by DISPATCH_STRATEGY. core.Strategy is
// defined from these.
const (
	StrategyChunked = "chunked"
	StrategyWindow  = "window"
)

// Transport modes accepted by TRANSPORT_MODE.
const (
	ModeGateway = "gateway"
	ModeDryRun  = "dryrun"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct walks the struct tree and fills tagged fields from the environment.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := lookup(envName, field.Tag.Get("envAlt"))
		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// lookup returns the trimmed value of the primary variable, falling back to alt.
func lookup(name, alt string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if alt == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(alt))
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var result []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Dispatch
	if c.Dispatch.BatchWidth <= 0 {
		errs = append(errs, "BATCH_WIDTH must be positive")
	}
	switch strings.ToLower(c.Dispatch.Strategy) {
	case StrategyChunked, StrategyWindow:
	default:
		errs = append(errs, fmt.Sprintf("DISPATCH_STRATEGY (%q) must be one of: chunked, window", c.Dispatch.Strategy))
	}
	if c.Dispatch.SendTimeout < 0 {
		errs = append(errs, "DISPATCH_SEND_TIMEOUT must be non-negative")
	}
	if c.Dispatch.Timeout <= 0 {
		errs = append(errs, "DISPATCH_TIMEOUT must be positive")
	}
	if c.Dispatch.MaxConcurrent <= 0 {
		errs = append(errs, "DISPATCH_MAX_CONCURRENT must be positive")
	}
	if c.Dispatch.MaxWaitTime <= 0 {
		errs = append(errs, "DISPATCH_MAX_WAIT_TIME must be positive")
	}

	// Upload
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}

	// Transport
	switch strings.ToLower(c.Transport.Mode) {
	case ModeGateway:
		if c.Transport.GatewayURL == "" {
			errs = append(errs, "GATEWAY_URL is required when TRANSPORT_MODE is gateway")
		}
		if c.Transport.StatusInterval <= 0 {
			errs = append(errs, "GATEWAY_STATUS_INTERVAL must be positive")
		}
	case ModeDryRun:
	default:
		errs = append(errs, fmt.Sprintf("TRANSPORT_MODE (%q) must be one of: gateway, dryrun", c.Transport.Mode))
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The gateway token is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Dispatch: {BatchWidth: %d, Strategy: %q, SendTimeout: %s, MaxConcurrent: %d}, ",
		c.Dispatch.BatchWidth, c.Dispatch.Strategy, c.Dispatch.SendTimeout, c.Dispatch.MaxConcurrent)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d}, ", c.Upload.MaxFileSize)
	token := ""
	if c.Transport.GatewayToken != "" {
		token = "[MASKED]"
	}
	fmt.Fprintf(&b, "Transport: {Mode: %q, GatewayURL: %q, GatewayToken: %q}, ",
		c.Transport.Mode, c.Transport.GatewayURL, token)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
