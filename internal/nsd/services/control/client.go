// Package control implements the command client for the NSD control
// channel. It is the only component callers interact with directly: it owns
// the acquire/release lifecycle of the transport, serializes commands,
// parses replies, and turns server-side rejections into errors so failures
// cannot be silently ignored.
package control

import (
	"context"
	"fmt"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/gateways/wire"
)

// Error message constants for consistent error handling
const (
	errOpenerRequired = "transport opener is required"
	errCodecRequired  = "control codec is required"
)

// Client issues commands against one control endpoint. Clients are cheap
// and independent; concurrent callers should each use their own, since a
// single connection never multiplexes commands.
type Client struct {
	endpoint domain.Endpoint
	open     OpenFunc
	codec    wire.ControlCodec
	logger   log.Logger
}

// Options defines configuration parameters for the control client: the
// endpoint to command, the transport opener, and the wire codec. Logger is
// optional and defaults to a no-op.
type Options struct {
	Endpoint domain.Endpoint
	Open     OpenFunc
	Codec    wire.ControlCodec
	Logger   log.Logger
}

// New creates a control client for the endpoint described in opts.
// Endpoint defaults (127.0.0.1:8952, 30s timeout) are applied before
// validation.
func New(opts Options) (*Client, error) {
	endpoint := opts.Endpoint.Normalize()
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}
	if opts.Open == nil {
		return nil, fmt.Errorf(errOpenerRequired)
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf(errCodecRequired)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Client{
		endpoint: endpoint,
		open:     opts.Open,
		codec:    opts.Codec,
		logger:   opts.Logger,
	}, nil
}

// Endpoint returns the endpoint this client commands.
func (c *Client) Endpoint() domain.Endpoint {
	return c.endpoint
}

// Invoke sends one command over a short-lived connection: open, exchange,
// close. Callers that issue several commands in a row should prefer
// WithSession to reuse the connection.
//
// A reply whose status line reports failure returns *domain.CommandError
// (carrying the message and any partial fields) rather than a failed
// Response, so callers must opt into handling rejections.
func (c *Client) Invoke(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	tr, err := c.open(ctx, c.endpoint)
	if err != nil {
		return domain.Response{}, err
	}
	defer tr.Close()

	return c.exchange(ctx, tr, cmd)
}

// Call is the generic entry point by command name: it builds a Command via
// the recognized-command table (validating arity for known names, passing
// unknown ones through untouched) and invokes it. It shares the exact
// serialization and error path with Invoke.
func (c *Client) Call(ctx context.Context, name string, args ...string) (domain.Response, error) {
	cmd, err := buildCommand(name, args...)
	if err != nil {
		return domain.Response{}, err
	}
	return c.Invoke(ctx, cmd)
}

// exchange performs one request/response cycle on an open transport.
func (c *Client) exchange(ctx context.Context, tr Transport, cmd domain.Command) (domain.Response, error) {
	payload, err := c.codec.EncodeCommand(cmd)
	if err != nil {
		return domain.Response{}, err
	}

	if err := tr.Send(ctx, payload); err != nil {
		return domain.Response{}, fmt.Errorf("invoking %q: %w", cmd.Name, err)
	}

	lines, err := tr.ReadReply(ctx)
	if err != nil {
		return domain.Response{}, fmt.Errorf("invoking %q: %w", cmd.Name, err)
	}

	resp, err := c.codec.DecodeReply(lines)
	if err != nil {
		return domain.Response{}, fmt.Errorf("invoking %q: %w", cmd.Name, err)
	}

	c.logger.Debug(map[string]any{
		"command": cmd.String(),
		"success": resp.Success,
		"fields":  resp.Len(),
	}, "control command completed")

	if !resp.Success {
		return domain.Response{}, &domain.CommandError{
			Command:  cmd.Name,
			Message:  resp.Message,
			Response: resp,
		}
	}
	return resp, nil
}
