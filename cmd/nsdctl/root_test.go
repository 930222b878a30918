package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// fakeController records invocations and plays back a scripted reply.
type fakeController struct {
	calls []invocation
	resp  domain.Response
	err   error
}

type invocation struct {
	name    string
	args    []string
	data    string
	pattern string
}

func (f *fakeController) Call(_ context.Context, name string, args ...string) (domain.Response, error) {
	f.calls = append(f.calls, invocation{name: name, args: args})
	return f.resp, f.err
}

func (f *fakeController) AddZone(_ context.Context, name, data, pattern string) (domain.Response, error) {
	f.calls = append(f.calls, invocation{name: "addzone", args: []string{name}, data: data, pattern: pattern})
	return f.resp, f.err
}

func (f *fakeController) UpdateZone(_ context.Context, name, data string) (domain.Response, error) {
	f.calls = append(f.calls, invocation{name: "updatezone", args: []string{name}, data: data})
	return f.resp, f.err
}

// executeCommand runs the CLI with a scripted controller instead of a
// real control channel.
func executeCommand(t *testing.T, fake *fakeController, args ...string) (string, error) {
	t.Helper()

	prev := rootCmd.PersistentPreRunE
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		client = fake
		return nil
	}
	t.Cleanup(func() {
		rootCmd.PersistentPreRunE = prev
		client = nil
		addZoneFile = ""
		addZonePattern = ""
		updateZoneFile = ""
		statsNoReset = false
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestStatusCommand(t *testing.T) {
	fake := &fakeController{resp: domain.Response{
		Success: true,
		Fields: []domain.Field{
			{Key: "version", Value: "4.8.0"},
			{Key: "verbosity", Value: "2"},
		},
	}}

	out, err := executeCommand(t, fake, "status")
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "status", fake.calls[0].name)
	assert.Equal(t, "version: 4.8.0\nverbosity: 2\n", out)
}

func TestStatsCommand_NoReset(t *testing.T) {
	fake := &fakeController{resp: domain.Response{Success: true}}

	_, err := executeCommand(t, fake, "stats", "--no-reset")
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "stats_noreset", fake.calls[0].name)
}

func TestAddZoneCommand(t *testing.T) {
	zonePath := filepath.Join(t.TempDir(), "example.com.zone")
	require.NoError(t, os.WriteFile(zonePath, []byte("zone data\n"), 0o644))

	fake := &fakeController{resp: domain.Response{Success: true, Message: "zone added"}}
	out, err := executeCommand(t, fake, "addzone", "example.com", "managed", "--file", zonePath)
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, "addzone", call.name)
	assert.Equal(t, []string{"example.com"}, call.args)
	assert.Equal(t, "managed", call.pattern)
	assert.Equal(t, "zone data\n", call.data)
	assert.Contains(t, out, "zone added")
}

func TestAddZoneCommand_MissingFile(t *testing.T) {
	fake := &fakeController{resp: domain.Response{Success: true}}
	_, err := executeCommand(t, fake, "addzone", "example.com", "--file", filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	assert.Empty(t, fake.calls)
}

func TestUpdateZoneCommand(t *testing.T) {
	zonePath := filepath.Join(t.TempDir(), "z")
	require.NoError(t, os.WriteFile(zonePath, []byte("v2"), 0o644))

	fake := &fakeController{resp: domain.Response{Success: true}}
	_, err := executeCommand(t, fake, "updatezone", "example.com", "--file", zonePath)
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "updatezone", fake.calls[0].name)
	assert.Equal(t, "v2", fake.calls[0].data)
}

func TestZoneCommands_WireNames(t *testing.T) {
	tests := []struct {
		args     []string
		wantName string
		wantArgs []string
	}{
		{args: []string{"delzone", "example.com"}, wantName: "delzone", wantArgs: []string{"example.com"}},
		{args: []string{"zonestatus"}, wantName: "zonestatus", wantArgs: nil},
		{args: []string{"zonestatus", "example.com"}, wantName: "zonestatus", wantArgs: []string{"example.com"}},
		{args: []string{"reload", "example.com"}, wantName: "reload", wantArgs: []string{"example.com"}},
		{args: []string{"notify"}, wantName: "notify", wantArgs: nil},
		{args: []string{"transfer", "example.com"}, wantName: "transfer", wantArgs: []string{"example.com"}},
		{args: []string{"force_transfer", "example.com"}, wantName: "force_transfer", wantArgs: []string{"example.com"}},
		{args: []string{"reconfig"}, wantName: "reconfig", wantArgs: nil},
		{args: []string{"log_reopen"}, wantName: "log_reopen", wantArgs: nil},
		{args: []string{"repattern"}, wantName: "repattern", wantArgs: nil},
		{args: []string{"verbosity", "3"}, wantName: "verbosity", wantArgs: []string{"3"}},
		{args: []string{"raw", "custom_cmd", "a", "b"}, wantName: "custom_cmd", wantArgs: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			fake := &fakeController{resp: domain.Response{Success: true}}
			_, err := executeCommand(t, fake, tt.args...)
			require.NoError(t, err)
			require.Len(t, fake.calls, 1)
			assert.Equal(t, tt.wantName, fake.calls[0].name)
			if tt.wantArgs == nil {
				assert.Empty(t, fake.calls[0].args)
			} else {
				assert.Equal(t, tt.wantArgs, fake.calls[0].args)
			}
		})
	}
}

func TestCommandErrorPropagates(t *testing.T) {
	cmdErr := &domain.CommandError{Command: "delzone", Message: "zone not found"}
	fake := &fakeController{err: cmdErr}

	_, err := executeCommand(t, fake, "delzone", "ghost.example")
	var got *domain.CommandError
	require.ErrorAs(t, err, &got)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, &fakeController{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nsdctl")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "authentication", err: &domain.AuthenticationError{Addr: "x"}, want: exitAuthentication},
		{name: "connection", err: &domain.ConnectionError{Op: "dial", Addr: "x"}, want: exitConnection},
		{name: "protocol", err: &domain.ProtocolError{Reason: "empty reply"}, want: exitProtocol},
		{name: "command", err: &domain.CommandError{Command: "status"}, want: exitCommand},
		{name: "generic", err: errors.New("boom"), want: exitGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestPrintResponse_FallbackOK(t *testing.T) {
	fake := &fakeController{resp: domain.Response{Success: true}}
	out, err := executeCommand(t, fake, "reconfig")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestPrintResponse_MessageThenFields(t *testing.T) {
	fake := &fakeController{resp: domain.Response{
		Success: true,
		Message: "2 zones",
		Fields:  []domain.Field{{Key: "example.com", Value: "ok"}},
	}}
	out, err := executeCommand(t, fake, "zonestatus")
	require.NoError(t, err)
	assert.Equal(t, "2 zones\nexample.com: ok\n", out)
}
