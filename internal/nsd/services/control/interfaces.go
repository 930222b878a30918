package control

import (
	"context"

	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// Transport is one live, mutually-authenticated control connection. The
// client never shares a Transport across concurrent invocations; commands
// on a connection are strictly sequential because the protocol has no
// request identifiers to demultiplex interleaved replies.
type Transport interface {
	// Send writes one encoded command (line terminator included).
	Send(ctx context.Context, payload []byte) error

	// ReadReply reads the raw reply lines up to (and excluding) the
	// protocol terminator. On failure the partial buffer is discarded and
	// the connection is closed, since a truncated reply cannot be parsed.
	ReadReply(ctx context.Context) ([]string, error)

	// Closed reports whether the connection can no longer be used.
	Closed() bool

	// Close releases the socket. Idempotent, safe after errors.
	Close() error
}

// OpenFunc establishes a new Transport for an endpoint. Injected so tests
// can substitute a fake transport for the TLS gateway.
type OpenFunc func(ctx context.Context, endpoint domain.Endpoint) (Transport, error)
