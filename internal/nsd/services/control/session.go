package control

import (
	"context"
	"fmt"

	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// Session is a scoped use of one control connection. The daemon closes the
// channel after each reply, so a Session transparently reopens the
// transport when the previous exchange spent it; what the scope guarantees
// is release: however the scope exits, the socket is closed exactly once.
//
// A Session is not safe for concurrent use; commands on one connection are
// strictly sequential.
type Session struct {
	client *Client
	tr     Transport
	closed bool
}

// NewSession opens a transport and returns the session owning it. The
// caller must Close it; prefer WithSession, which cannot leak the socket.
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	tr, err := c.open(ctx, c.endpoint)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, tr: tr}, nil
}

// WithSession runs fn inside a session scope: the transport is opened on
// entry and closed on every exit path, including an error from fn or a
// panic through it.
func (c *Client) WithSession(ctx context.Context, fn func(s *Session) error) error {
	s, err := c.NewSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// Invoke sends one command on the session's connection, reopening it first
// if the previous exchange spent it (server EOF or a transport failure).
func (s *Session) Invoke(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	if s.closed {
		return domain.Response{}, fmt.Errorf("session is closed")
	}

	if s.tr == nil || s.tr.Closed() {
		tr, err := s.client.open(ctx, s.client.endpoint)
		if err != nil {
			return domain.Response{}, err
		}
		s.tr = tr
	}

	return s.client.exchange(ctx, s.tr, cmd)
}

// Call is the by-name variant of Invoke, sharing the client's command table.
func (s *Session) Call(ctx context.Context, name string, args ...string) (domain.Response, error) {
	cmd, err := buildCommand(name, args...)
	if err != nil {
		return domain.Response{}, err
	}
	return s.Invoke(ctx, cmd)
}

// Close releases the session's connection. Idempotent; only the first call
// reaches the transport.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tr == nil {
		return nil
	}
	return s.tr.Close()
}
