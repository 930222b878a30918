package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "status")
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var statsNoReset bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "stats"
		if statsNoReset {
			name = "stats_noreset"
		}
		resp, err := client.Call(cmd.Context(), name)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var reconfigCmd = &cobra.Command{
	Use:   "reconfig",
	Short: "Reload the server configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "reconfig")
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var logReopenCmd = &cobra.Command{
	Use:   "log_reopen",
	Short: "Reopen the server log file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "log_reopen")
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var repatternCmd = &cobra.Command{
	Use:   "repattern",
	Short: "Reread config patterns without a full reconfig",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "repattern")
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write [zone]",
	Short: "Write changed secondary zones to their zone files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "write", args...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var verbosityCmd = &cobra.Command{
	Use:   "verbosity <level>",
	Short: "Change server log verbosity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "verbosity", args[0])
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var rawCmd = &cobra.Command{
	Use:   "raw <command> [args...]",
	Short: "Send an arbitrary control command",
	Long: `raw sends any control command verbatim, including commands this CLI
has no subcommand for. Arguments after the command name are passed
through unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), args[0], args[1:]...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nsdctl version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nsdctl %s\n", version)
	},
}

// version is stamped at build time via -ldflags.
var version = "dev"

func init() {
	statsCmd.Flags().BoolVar(&statsNoReset, "no-reset", false, "read statistics without resetting counters")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reconfigCmd)
	rootCmd.AddCommand(logReopenCmd)
	rootCmd.AddCommand(repatternCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(verbosityCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(versionCmd)
}
