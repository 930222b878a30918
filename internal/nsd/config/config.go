// Package config loads nsdctl configuration from environment variables
// with the prefix "NSD_", applying defaults and struct validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/repos/zonefiles"
)

// ClientConfig holds everything needed to reach a control endpoint.
// It is shared by the CLI and the provisioning daemon.
type ClientConfig struct {
	// Host is the control endpoint address.
	Host string `koanf:"host" validate:"required"`

	// Port is the control endpoint port.
	Port int `koanf:"port" validate:"required,gte=1,lt=65536"`

	// ClientCert and ClientKey are the PEM files presented during the
	// mutual TLS handshake.
	ClientCert string `koanf:"client_cert" validate:"required,file"`
	ClientKey  string `koanf:"client_key" validate:"required,file"`

	// CABundle is an optional PEM bundle used to verify the server
	// certificate instead of the system roots.
	CABundle string `koanf:"ca_bundle" validate:"omitempty,file"`

	// Insecure disables server certificate verification.
	Insecure bool `koanf:"insecure"`

	// Timeout bounds every dial, write, and read on the control channel.
	Timeout time.Duration `koanf:"timeout" validate:"required"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DaemonConfig holds the provisioning daemon's own settings. The control
// endpoint it talks to comes from ClientConfig.
type DaemonConfig struct {
	// Bind is the host:port the HTTP API listens on.
	Bind string `koanf:"bind" validate:"required,hostname_port"`

	// ZoneDir is the directory zone files are written under.
	ZoneDir string `koanf:"zone_dir" validate:"required"`

	// FilePattern derives each zone's file path relative to ZoneDir.
	FilePattern string `koanf:"file_pattern" validate:"required,zone_pattern"`

	// DefaultPattern is the name server config pattern assigned to zones
	// added without an explicit one.
	DefaultPattern string `koanf:"default_pattern" validate:"required"`

	// RegistryPath is the bbolt database tracking provisioned zones.
	RegistryPath string `koanf:"registry_path" validate:"required"`

	// CacheSize and CacheTTL bound the reply cache for read-only commands.
	CacheSize uint          `koanf:"cache_size" validate:"required,gte=1"`
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"required"`
}

// DEFAULT_CLIENT_CONFIG defines the default control endpoint settings.
var DEFAULT_CLIENT_CONFIG = ClientConfig{
	Host:     domain.DefaultHost,
	Port:     domain.DefaultPort,
	Timeout:  domain.DefaultTimeout,
	Env:      "prod",
	LogLevel: "info",
}

// DEFAULT_DAEMON_CONFIG defines the default provisioning daemon settings.
var DEFAULT_DAEMON_CONFIG = DaemonConfig{
	Bind:           "127.0.0.1:8954",
	ZoneDir:        "/var/lib/nsd/zones/",
	FilePattern:    "%z/%s.zone",
	DefaultPattern: "managed",
	RegistryPath:   "/var/lib/nsd/zones.db",
	CacheSize:      256,
	CacheTTL:       10 * time.Second,
}

// validZonePattern validates that the field is a usable zone filename
// pattern (it must contain a %s placeholder).
func validZonePattern(fl validator.FieldLevel) bool {
	_, err := zonefiles.ParsePattern(fl.Field().String())
	return err == nil
}

// envLoader loads environment variables with the prefix "NSD_", lowercasing
// keys and stripping the prefix. It can be swapped in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "NSD_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "NSD_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("zone_pattern", validZonePattern)
}

func load(defaults any, out any) error {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return fmt.Errorf("error loading env: %w", err)
	}
	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}
	return nil
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(v); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	return v, nil
}

// LoadClient parses client settings from the environment without
// validating them, so callers can overlay command line flags first.
// Call Validate on the result before using it.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := load(DEFAULT_CLIENT_CONFIG, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the client settings, including that the certificate
// files exist.
func (c *ClientConfig) Validate() error {
	v, err := newValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Endpoint converts the client settings into a control endpoint.
func (c *ClientConfig) Endpoint() domain.Endpoint {
	return domain.Endpoint{
		Host:       c.Host,
		Port:       c.Port,
		ClientCert: c.ClientCert,
		ClientKey:  c.ClientKey,
		CABundle:   c.CABundle,
		Insecure:   c.Insecure,
		Timeout:    c.Timeout,
	}
}

// LoadDaemon parses and validates the provisioning daemon settings from
// the environment.
func LoadDaemon() (*DaemonConfig, error) {
	var cfg DaemonConfig
	if err := load(DEFAULT_DAEMON_CONFIG, &cfg); err != nil {
		return nil, err
	}
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	if err := v.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}
