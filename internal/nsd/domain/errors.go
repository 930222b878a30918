package domain

import "fmt"

// The control client distinguishes four failure kinds so callers can react
// differently to each: retry connection failures, surface authentication
// failures as configuration problems, treat protocol failures as a
// server/client mismatch, and decide per-command what a rejection means.
// They are never collapsed into a single generic error.

// ConnectionError reports a DNS, socket, or timeout failure before or during
// I/O on the control channel. The underlying connection is always closed
// before this error is returned; the caller may retry with a fresh one.
type ConnectionError struct {
	Op   string // "dial", "write", or "read"
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("control connection %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports a TLS handshake that failed because a
// certificate was rejected, by either peer. It is kept distinct from
// ConnectionError since retrying cannot help; the credentials are wrong.
type AuthenticationError struct {
	Addr string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("control authentication with %s: %v", e.Addr, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a reply that could not be interpreted: an empty
// reply, or framing the parser does not recognize. It indicates a
// server/protocol mismatch and is not retryable.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "control protocol: " + e.Reason
}

// CommandError reports that the server explicitly rejected a command. It
// carries the server's message and whatever structured fields accompanied
// the rejection, so callers can inspect partial data.
type CommandError struct {
	Command  string
	Message  string
	Response Response
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("command %q failed", e.Command)
	}
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Message)
}
