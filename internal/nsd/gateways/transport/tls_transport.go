// Package transport owns the mutually-authenticated TLS connection to the
// NSD control channel. It provides line-based send/receive primitives and
// applies one uniform timeout to the connect, write, and read phases: a
// control channel is low-volume and low-latency, so a single configurable
// budget suffices rather than per-phase ones.
package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/services/control"
)

// Error message constants for consistent error handling
const (
	errLoadKeyPair   = "load client key pair: %w"
	errLoadCABundle  = "load CA bundle %s: %w"
	errParseCABundle = "no certificates parsed from CA bundle %s"
	errClosedConn    = "connection is closed"
)

// DialFunc defines a function type for establishing the underlying TCP
// connection. Injected so tests can substitute an in-memory pipe.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options defines configuration parameters for opening a control connection.
type Options struct {
	Endpoint domain.Endpoint
	// options to inject for testing purposes
	Dial   DialFunc
	Logger log.Logger
}

// Conn is a live TLS connection to one control endpoint. It is owned by a
// single caller at a time; a closed Conn cannot be reused.
type Conn struct {
	addr    string
	timeout time.Duration
	logger  log.Logger

	conn net.Conn
	br   *bufio.Reader

	mu     sync.Mutex
	closed bool
}

// Open establishes a TLS connection to the endpoint, presenting the client
// certificate and key for mutual authentication and validating the server
// certificate against the CA bundle unless the endpoint is marked insecure.
//
// Failures are classified: certificate rejection during the handshake (by
// either peer) surfaces as *domain.AuthenticationError so callers can react
// to credential problems; everything else, including DNS, dial, and timeout
// failures, surfaces as *domain.ConnectionError.
func Open(ctx context.Context, opts Options) (*Conn, error) {
	endpoint := opts.Endpoint.Normalize()
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	tlsConf, err := buildTLSConfig(endpoint)
	if err != nil {
		return nil, err
	}

	addr := endpoint.Addr()
	ctx, cancel := context.WithTimeout(ctx, endpoint.Timeout)
	defer cancel()

	raw, err := opts.Dial(ctx, "tcp", addr)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "dial", Addr: addr, Err: err}
	}

	tlsConn := tls.Client(raw, tlsConf)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, classifyHandshakeError(addr, err)
	}

	opts.Logger.Debug(map[string]any{
		"addr": addr,
		"tls":  tlsConn.ConnectionState().Version,
	}, "control connection established")

	return &Conn{
		addr:    addr,
		timeout: endpoint.Timeout,
		logger:  opts.Logger,
		conn:    tlsConn,
		br:      bufio.NewReader(tlsConn),
	}, nil
}

// Opener adapts Open into the control service's OpenFunc, binding the
// logger and dial function once.
func Opener(logger log.Logger, dial DialFunc) control.OpenFunc {
	return func(ctx context.Context, endpoint domain.Endpoint) (control.Transport, error) {
		return Open(ctx, Options{Endpoint: endpoint, Dial: dial, Logger: logger})
	}
}

// buildTLSConfig assembles the mutual-authentication TLS configuration for
// the endpoint. Credential loading failures are authentication errors: the
// connection was never attempted, the credentials themselves are unusable.
func buildTLSConfig(endpoint domain.Endpoint) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(endpoint.ClientCert, endpoint.ClientKey)
	if err != nil {
		return nil, &domain.AuthenticationError{
			Addr: endpoint.Addr(),
			Err:  fmt.Errorf(errLoadKeyPair, err),
		}
	}

	conf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ServerName:   endpoint.Host,
		MinVersion:   tls.VersionTLS12,
	}

	if endpoint.Insecure {
		conf.InsecureSkipVerify = true
		return conf, nil
	}

	if endpoint.CABundle != "" {
		pem, err := os.ReadFile(endpoint.CABundle)
		if err != nil {
			return nil, &domain.AuthenticationError{
				Addr: endpoint.Addr(),
				Err:  fmt.Errorf(errLoadCABundle, endpoint.CABundle, err),
			}
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, &domain.AuthenticationError{
				Addr: endpoint.Addr(),
				Err:  fmt.Errorf(errParseCABundle, endpoint.CABundle),
			}
		}
		conf.RootCAs = pool
	}

	return conf, nil
}

// Send writes one encoded command to the channel.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &domain.ConnectionError{Op: "write", Addr: c.addr, Err: fmt.Errorf(errClosedConn)}
	}

	_ = c.conn.SetWriteDeadline(c.deadline(ctx))
	if _, err := c.conn.Write(payload); err != nil {
		c.closeLocked()
		return &domain.ConnectionError{Op: "write", Addr: c.addr, Err: err}
	}
	return nil
}

// ReadReply reads LF-terminated lines until the end-of-reply marker: a
// blank line, or the server closing the channel (NSD closes after each
// reply). The terminator is excluded. On timeout or any other read failure
// the connection is closed and the partial buffer discarded.
func (c *Conn) ReadReply(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &domain.ConnectionError{Op: "read", Addr: c.addr, Err: fmt.Errorf(errClosedConn)}
	}

	_ = c.conn.SetReadDeadline(c.deadline(ctx))

	var lines []string
	for {
		chunk, err := c.br.ReadString('\n')
		if err != nil {
			if isEOF(err) {
				// Server closed the channel; whatever arrived is the
				// complete reply. The connection is spent.
				if trimmed := trimLine(chunk); trimmed != "" {
					lines = append(lines, trimmed)
				}
				c.closeLocked()
				return lines, nil
			}
			c.closeLocked()
			return nil, &domain.ConnectionError{Op: "read", Addr: c.addr, Err: err}
		}

		line := trimLine(chunk)
		if line == "" {
			// Blank line terminates the reply; the connection stays usable.
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// Closed reports whether the connection has been spent.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the socket. Idempotent and safe to call after errors.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Debug(map[string]any{"addr": c.addr}, "control connection closed")
	return c.conn.Close()
}

// deadline returns the operation deadline: the uniform timeout, or the
// context deadline when that is sooner.
func (c *Conn) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func trimLine(s string) string {
	return strings.TrimRight(s, "\r\n")
}

var _ control.Transport = (*Conn)(nil)
