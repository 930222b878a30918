package control

import (
	"context"
	"fmt"

	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// commandSpec bounds the argument count for a recognized control command.
type commandSpec struct {
	minArgs int
	maxArgs int
}

// commandTable lists the control commands this client recognizes, replacing
// the dynamic attribute dispatch of older clients with an explicit mapping.
// Unrecognized names still pass through Call untouched, since the daemon's
// vocabulary grows faster than this table.
var commandTable = map[string]commandSpec{
	"status":         {0, 0},
	"stats":          {0, 0},
	"stats_noreset":  {0, 0},
	"reconfig":       {0, 0},
	"log_reopen":     {0, 0},
	"repattern":      {0, 0},
	"addzone":        {1, 2}, // zone [pattern]
	"updatezone":     {1, 1},
	"delzone":        {1, 1},
	"zonestatus":     {0, 1}, // bare form reports all zones
	"reload":         {0, 1},
	"notify":         {0, 1},
	"transfer":       {0, 1},
	"force_transfer": {0, 1},
	"write":          {0, 1},
	"verbosity":      {1, 1},
}

// buildCommand constructs a Command for Call, enforcing arity for
// recognized command names.
func buildCommand(name string, args ...string) (domain.Command, error) {
	if spec, ok := commandTable[name]; ok {
		if len(args) < spec.minArgs || len(args) > spec.maxArgs {
			return domain.Command{}, fmt.Errorf(
				"command %q takes %d to %d arguments, got %d",
				name, spec.minArgs, spec.maxArgs, len(args))
		}
	}
	return domain.NewCommand(name, args...)
}

// Status reports the daemon's version and configuration summary.
func (c *Client) Status(ctx context.Context) (domain.Response, error) {
	return c.Call(ctx, "status")
}

// AddZone registers a zone with the daemon under the given pattern (the
// daemon's default when empty) and ships the zone data alongside when
// provided.
func (c *Client) AddZone(ctx context.Context, name, data, pattern string) (domain.Response, error) {
	args := []string{name}
	if pattern != "" {
		args = append(args, pattern)
	}
	cmd, err := domain.NewCommand("addzone", args...)
	if err != nil {
		return domain.Response{}, err
	}
	return c.Invoke(ctx, cmd.WithData(data))
}

// UpdateZone replaces the zone's data payload.
func (c *Client) UpdateZone(ctx context.Context, name, data string) (domain.Response, error) {
	cmd, err := domain.NewCommand("updatezone", name)
	if err != nil {
		return domain.Response{}, err
	}
	return c.Invoke(ctx, cmd.WithData(data))
}

// DeleteZone removes a zone from the daemon.
func (c *Client) DeleteZone(ctx context.Context, name string) (domain.Response, error) {
	return c.Call(ctx, "delzone", name)
}

// ZoneStatus reports the daemon's view of one zone.
func (c *Client) ZoneStatus(ctx context.Context, name string) (domain.Response, error) {
	return c.Call(ctx, "zonestatus", name)
}

// ReloadZone re-reads a zone's data on the daemon.
func (c *Client) ReloadZone(ctx context.Context, name string) (domain.Response, error) {
	return c.Call(ctx, "reload", name)
}

// NotifyZone sends NOTIFY messages to the zone's secondaries.
func (c *Client) NotifyZone(ctx context.Context, name string) (domain.Response, error) {
	return c.Call(ctx, "notify", name)
}

// TransferZone asks the daemon to attempt an inbound transfer of the zone.
func (c *Client) TransferZone(ctx context.Context, name string) (domain.Response, error) {
	return c.Call(ctx, "transfer", name)
}

// Reconfig makes the daemon re-read its configuration.
func (c *Client) Reconfig(ctx context.Context) (domain.Response, error) {
	return c.Call(ctx, "reconfig")
}

// Stats fetches the daemon's counters. With reset true the daemon zeroes
// them after reporting; reset false maps to the non-resetting variant.
func (c *Client) Stats(ctx context.Context, reset bool) (domain.Response, error) {
	if reset {
		return c.Call(ctx, "stats")
	}
	return c.Call(ctx, "stats_noreset")
}
