package domain

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Defaults for the control channel, matching the daemon's stock setup.
const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 8952
	DefaultTimeout = 30 * time.Second
)

// Endpoint is the immutable description of one control-channel target:
// where to connect and which credentials to present. It is created once at
// client construction and never mutated.
type Endpoint struct {
	Host       string
	Port       int
	ClientCert string // path to the client certificate (PEM)
	ClientKey  string // path to the client private key (PEM)
	CABundle   string // optional CA bundle for server verification
	Insecure   bool   // skip server certificate verification (self-signed deployments)
	Timeout    time.Duration
}

// Normalize returns a copy with defaults applied for unset fields.
func (e Endpoint) Normalize() Endpoint {
	if e.Host == "" {
		e.Host = DefaultHost
	}
	if e.Port == 0 {
		e.Port = DefaultPort
	}
	if e.Timeout <= 0 {
		e.Timeout = DefaultTimeout
	}
	return e
}

// Validate checks the endpoint is structurally usable. File readability is
// checked later, when the transport loads the key pair.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return fmt.Errorf("endpoint host must not be empty")
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("endpoint port %d out of range", e.Port)
	}
	if e.ClientCert == "" || e.ClientKey == "" {
		return fmt.Errorf("endpoint requires both a client certificate and key")
	}
	return nil
}

// Addr returns the host:port dial target.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}
