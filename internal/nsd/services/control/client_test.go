package control

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/gateways/wire"
)

// fakeTransport scripts one connection's behavior and records its use.
type fakeTransport struct {
	reply       []string
	sendErr     error
	readErr     error
	spendOnRead bool // simulate the server closing after the reply

	sent       []string
	closed     bool
	closeCalls int
}

func (f *fakeTransport) Send(_ context.Context, payload []byte) error {
	if f.closed {
		return &domain.ConnectionError{Op: "write", Addr: "fake", Err: errors.New("closed")}
	}
	if f.sendErr != nil {
		f.closed = true
		return f.sendErr
	}
	f.sent = append(f.sent, string(payload))
	return nil
}

func (f *fakeTransport) ReadReply(_ context.Context) ([]string, error) {
	if f.readErr != nil {
		f.closed = true
		return nil, f.readErr
	}
	if f.spendOnRead {
		f.closed = true
	}
	return f.reply, nil
}

func (f *fakeTransport) Closed() bool { return f.closed }

func (f *fakeTransport) Close() error {
	f.closeCalls++
	f.closed = true
	return nil
}

// fakeOpener hands out scripted transports in order and counts opens.
type fakeOpener struct {
	transports []*fakeTransport
	err        error
	opens      int
}

func (o *fakeOpener) open(_ context.Context, _ domain.Endpoint) (Transport, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	if o.opens > len(o.transports) {
		return nil, fmt.Errorf("unexpected open %d", o.opens)
	}
	return o.transports[o.opens-1], nil
}

func testEndpoint() domain.Endpoint {
	return domain.Endpoint{
		Host:       "127.0.0.1",
		Port:       8952,
		ClientCert: "client.pem",
		ClientKey:  "client.key",
	}
}

func newTestClient(t *testing.T, opener *fakeOpener) *Client {
	t.Helper()
	c, err := New(Options{
		Endpoint: testEndpoint(),
		Open:     opener.open,
		Codec:    wire.NewControlCodec(log.NewNoopLogger()),
	})
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	opener := &fakeOpener{}
	codec := wire.NewControlCodec(log.NewNoopLogger())

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name: "valid",
			opts: Options{Endpoint: testEndpoint(), Open: opener.open, Codec: codec},
		},
		{
			name:    "missing opener",
			opts:    Options{Endpoint: testEndpoint(), Codec: codec},
			wantErr: errOpenerRequired,
		},
		{
			name:    "missing codec",
			opts:    Options{Endpoint: testEndpoint(), Open: opener.open},
			wantErr: errCodecRequired,
		},
		{
			name: "missing credentials",
			opts: Options{
				Endpoint: domain.Endpoint{Host: "h", Port: 8952},
				Open:     opener.open,
				Codec:    codec,
			},
			wantErr: "client certificate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewAppliesEndpointDefaults(t *testing.T) {
	opener := &fakeOpener{}
	c, err := New(Options{
		Endpoint: domain.Endpoint{ClientCert: "c.pem", ClientKey: "k.pem"},
		Open:     opener.open,
		Codec:    wire.NewControlCodec(log.NewNoopLogger()),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultHost, c.Endpoint().Host)
	assert.Equal(t, domain.DefaultPort, c.Endpoint().Port)
	assert.Equal(t, domain.DefaultTimeout, c.Endpoint().Timeout)
}

func TestInvokeSuccess(t *testing.T) {
	tr := &fakeTransport{reply: []string{"ok", "version: 4.3.9"}}
	opener := &fakeOpener{transports: []*fakeTransport{tr}}
	c := newTestClient(t, opener)

	cmd, _ := domain.NewCommand("status")
	resp, err := c.Invoke(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "4.3.9", resp.Value("version"))
	assert.Equal(t, []string{"NSDCT1 status\n"}, tr.sent)
	// per-call invocations always release the connection
	assert.Equal(t, 1, tr.closeCalls)
}

func TestInvokeCommandRejection(t *testing.T) {
	tr := &fakeTransport{reply: []string{"ERROR zone not found", "zone: example.com"}}
	opener := &fakeOpener{transports: []*fakeTransport{tr}}
	c := newTestClient(t, opener)

	cmd, _ := domain.NewCommand("zonestatus", "example.com")
	_, err := c.Invoke(context.Background(), cmd)

	var cmdErr *domain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "zonestatus", cmdErr.Command)
	assert.Equal(t, "zone not found", cmdErr.Message)
	// partial data rides along on the error
	assert.Equal(t, "example.com", cmdErr.Response.Value("zone"))
	assert.Equal(t, 1, tr.closeCalls)
}

func TestInvokeOpenFailurePassesThrough(t *testing.T) {
	authErr := &domain.AuthenticationError{Addr: "127.0.0.1:8952", Err: errors.New("tls: bad certificate")}
	opener := &fakeOpener{err: authErr}
	c := newTestClient(t, opener)

	cmd, _ := domain.NewCommand("status")
	_, err := c.Invoke(context.Background(), cmd)

	var got *domain.AuthenticationError
	assert.ErrorAs(t, err, &got)
}

func TestInvokeTransportErrorsWrapCommandName(t *testing.T) {
	connErr := &domain.ConnectionError{Op: "read", Addr: "127.0.0.1:8952", Err: errors.New("timeout")}
	tr := &fakeTransport{readErr: connErr}
	opener := &fakeOpener{transports: []*fakeTransport{tr}}
	c := newTestClient(t, opener)

	cmd, _ := domain.NewCommand("stats")
	_, err := c.Invoke(context.Background(), cmd)

	var got *domain.ConnectionError
	require.ErrorAs(t, err, &got)
	assert.Contains(t, err.Error(), `"stats"`)
}

func TestInvokeEmptyReplyIsProtocolError(t *testing.T) {
	tr := &fakeTransport{reply: nil}
	opener := &fakeOpener{transports: []*fakeTransport{tr}}
	c := newTestClient(t, opener)

	cmd, _ := domain.NewCommand("status")
	_, err := c.Invoke(context.Background(), cmd)

	var protoErr *domain.ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestCallValidatesArity(t *testing.T) {
	opener := &fakeOpener{}
	c := newTestClient(t, opener)

	_, err := c.Call(context.Background(), "verbosity") // requires exactly one arg
	require.Error(t, err)
	// the transport is never opened for a malformed call
	assert.Zero(t, opener.opens)

	_, err = c.Call(context.Background(), "addzone", "a", "b", "c")
	require.Error(t, err)
	assert.Zero(t, opener.opens)
}

func TestCallUnknownCommandPassesThrough(t *testing.T) {
	tr := &fakeTransport{reply: []string{"ok"}}
	opener := &fakeOpener{transports: []*fakeTransport{tr}}
	c := newTestClient(t, opener)

	_, err := c.Call(context.Background(), "assoc_tsig", "example.com", "key1")
	require.NoError(t, err)
	assert.Equal(t, []string{"NSDCT1 assoc_tsig example.com key1\n"}, tr.sent)
}

func TestNamedWrappers(t *testing.T) {
	tests := []struct {
		name     string
		invoke   func(c *Client) error
		wantWire string
	}{
		{
			name: "status",
			invoke: func(c *Client) error {
				_, err := c.Status(context.Background())
				return err
			},
			wantWire: "NSDCT1 status\n",
		},
		{
			name: "add zone with pattern and data",
			invoke: func(c *Client) error {
				_, err := c.AddZone(context.Background(), "example.com", "www IN A 192.0.2.1\n", "slave")
				return err
			},
			wantWire: "NSDCT1 addzone example.com slave\nwww IN A 192.0.2.1\n.\n",
		},
		{
			name: "add zone without pattern",
			invoke: func(c *Client) error {
				_, err := c.AddZone(context.Background(), "example.com", "", "")
				return err
			},
			wantWire: "NSDCT1 addzone example.com\n",
		},
		{
			name: "update zone",
			invoke: func(c *Client) error {
				_, err := c.UpdateZone(context.Background(), "example.com", "www IN A 192.0.2.2\n")
				return err
			},
			wantWire: "NSDCT1 updatezone example.com\nwww IN A 192.0.2.2\n.\n",
		},
		{
			name: "delete zone",
			invoke: func(c *Client) error {
				_, err := c.DeleteZone(context.Background(), "example.com")
				return err
			},
			wantWire: "NSDCT1 delzone example.com\n",
		},
		{
			name: "zone status",
			invoke: func(c *Client) error {
				_, err := c.ZoneStatus(context.Background(), "example.com")
				return err
			},
			wantWire: "NSDCT1 zonestatus example.com\n",
		},
		{
			name: "reload",
			invoke: func(c *Client) error {
				_, err := c.ReloadZone(context.Background(), "example.com")
				return err
			},
			wantWire: "NSDCT1 reload example.com\n",
		},
		{
			name: "notify",
			invoke: func(c *Client) error {
				_, err := c.NotifyZone(context.Background(), "example.com")
				return err
			},
			wantWire: "NSDCT1 notify example.com\n",
		},
		{
			name: "transfer",
			invoke: func(c *Client) error {
				_, err := c.TransferZone(context.Background(), "example.com")
				return err
			},
			wantWire: "NSDCT1 transfer example.com\n",
		},
		{
			name: "reconfig",
			invoke: func(c *Client) error {
				_, err := c.Reconfig(context.Background())
				return err
			},
			wantWire: "NSDCT1 reconfig\n",
		},
		{
			name: "stats with reset",
			invoke: func(c *Client) error {
				_, err := c.Stats(context.Background(), true)
				return err
			},
			wantWire: "NSDCT1 stats\n",
		},
		{
			name: "stats without reset",
			invoke: func(c *Client) error {
				_, err := c.Stats(context.Background(), false)
				return err
			},
			wantWire: "NSDCT1 stats_noreset\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{reply: []string{"ok"}}
			opener := &fakeOpener{transports: []*fakeTransport{tr}}
			c := newTestClient(t, opener)

			require.NoError(t, tt.invoke(c))
			require.Len(t, tr.sent, 1)
			assert.Equal(t, tt.wantWire, tr.sent[0])
		})
	}
}
