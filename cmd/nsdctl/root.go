package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/config"
	"github.com/haukened/nsdctl/internal/nsd/domain"
	"github.com/haukened/nsdctl/internal/nsd/gateways/transport"
	"github.com/haukened/nsdctl/internal/nsd/gateways/wire"
	"github.com/haukened/nsdctl/internal/nsd/services/control"
)

// Exit codes distinguish failure classes so scripts can react without
// parsing error text.
const (
	exitGeneric        = 1
	exitConnection     = 2
	exitAuthentication = 3
	exitProtocol       = 4
	exitCommand        = 5
)

var (
	flagHost     string
	flagPort     int
	flagCert     string
	flagKey      string
	flagCA       string
	flagInsecure bool
	flagTimeout  time.Duration
	flagLogLevel string

	// client is built during PersistentPreRunE and used by every
	// subcommand. Tests can replace it.
	client controller
)

// controller is what subcommands need from the control client.
type controller interface {
	Call(ctx context.Context, name string, args ...string) (domain.Response, error)
	AddZone(ctx context.Context, name, data, pattern string) (domain.Response, error)
	UpdateZone(ctx context.Context, name, data string) (domain.Response, error)
}

var rootCmd = &cobra.Command{
	Use:   "nsdctl",
	Short: "Control a running NSD name server over its TLS control channel",
	Long: `nsdctl speaks the NSD control protocol over mutual TLS. It sends a
single command per connection and prints the server's reply. Connection
settings come from NSD_* environment variables and can be overridden
with flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version needs no control channel or credentials.
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := config.LoadClient()
		if err != nil {
			return err
		}

		// Flags override the environment only when set.
		flags := cmd.Flags()
		if flags.Changed("host") {
			cfg.Host = flagHost
		}
		if flags.Changed("port") {
			cfg.Port = flagPort
		}
		if flags.Changed("cert") {
			cfg.ClientCert = flagCert
		}
		if flags.Changed("key") {
			cfg.ClientKey = flagKey
		}
		if flags.Changed("ca") {
			cfg.CABundle = flagCA
		}
		if flags.Changed("insecure") {
			cfg.Insecure = flagInsecure
		}
		if flags.Changed("timeout") {
			cfg.Timeout = flagTimeout
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = flagLogLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
			return err
		}

		logger := log.GetLogger()
		c, err := control.New(control.Options{
			Endpoint: cfg.Endpoint(),
			Open:     transport.Opener(logger, nil),
			Codec:    wire.NewControlCodec(logger),
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		client = c
		return nil
	},
}

// Execute runs the root command and exits with a class-specific code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var (
		authErr *domain.AuthenticationError
		connErr *domain.ConnectionError
		protErr *domain.ProtocolError
		cmdErr  *domain.CommandError
	)
	switch {
	case errors.As(err, &authErr):
		return exitAuthentication
	case errors.As(err, &connErr):
		return exitConnection
	case errors.As(err, &protErr):
		return exitProtocol
	case errors.As(err, &cmdErr):
		return exitCommand
	default:
		return exitGeneric
	}
}

// printResponse writes the reply's message and fields in server order.
func printResponse(cmd *cobra.Command, resp domain.Response) {
	w := cmd.OutOrStdout()
	if resp.Message != "" {
		fmt.Fprintln(w, resp.Message)
	}
	for _, f := range resp.Fields {
		fmt.Fprintf(w, "%s: %s\n", f.Key, f.Value)
	}
	if resp.Message == "" && len(resp.Fields) == 0 {
		fmt.Fprintln(w, "ok")
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHost, "host", domain.DefaultHost, "control endpoint host")
	pf.IntVar(&flagPort, "port", domain.DefaultPort, "control endpoint port")
	pf.StringVar(&flagCert, "cert", "", "client certificate PEM file")
	pf.StringVar(&flagKey, "key", "", "client key PEM file")
	pf.StringVar(&flagCA, "ca", "", "CA bundle PEM file for server verification")
	pf.BoolVar(&flagInsecure, "insecure", false, "skip server certificate verification")
	pf.DurationVar(&flagTimeout, "timeout", domain.DefaultTimeout, "control channel timeout")
	pf.StringVar(&flagLogLevel, "log-level", "", "log verbosity (debug, info, warn, error)")
}
