package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	addZoneFile    string
	addZonePattern string
	updateZoneFile string
)

// readZoneFile loads zone data; "-" reads from stdin.
func readZoneFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = os.ReadFile("/dev/stdin")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading zone file: %w", err)
	}
	return string(data), nil
}

var addZoneCmd = &cobra.Command{
	Use:   "addzone <zone> [pattern]",
	Short: "Add a zone to the running server",
	Long: `addzone registers a zone with the running server under a config
pattern. With --file the zone contents are sent along with the command.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := addZonePattern
		if len(args) == 2 {
			pattern = args[1]
		}
		data, err := readZoneFile(addZoneFile)
		if err != nil {
			return err
		}
		resp, err := client.AddZone(cmd.Context(), args[0], data, pattern)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var updateZoneCmd = &cobra.Command{
	Use:   "updatezone <zone>",
	Short: "Replace a zone's contents on the running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readZoneFile(updateZoneFile)
		if err != nil {
			return err
		}
		resp, err := client.UpdateZone(cmd.Context(), args[0], data)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var delZoneCmd = &cobra.Command{
	Use:   "delzone <zone>",
	Short: "Remove a zone from the running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "delzone", args[0])
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var zoneStatusCmd = &cobra.Command{
	Use:   "zonestatus [zone]",
	Short: "Show zone state (all zones when none is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "zonestatus", args...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload [zone]",
	Short: "Reload zone files (all zones when none is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "reload", args...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify [zone]",
	Short: "Send NOTIFY to secondaries (all zones when none is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "notify", args...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer [zone]",
	Short: "Attempt zone transfer from primaries (all zones when none is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "transfer", args...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

var forceTransferCmd = &cobra.Command{
	Use:   "force_transfer [zone]",
	Short: "Force a full zone transfer, ignoring serial numbers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Call(cmd.Context(), "force_transfer", args...)
		if err != nil {
			return err
		}
		printResponse(cmd, resp)
		return nil
	},
}

func init() {
	addZoneCmd.Flags().StringVar(&addZoneFile, "file", "", "zone file to send with the command (- for stdin)")
	addZoneCmd.Flags().StringVar(&addZonePattern, "pattern", "", "config pattern for the new zone")
	updateZoneCmd.Flags().StringVar(&updateZoneFile, "file", "", "zone file to send with the command (- for stdin)")

	rootCmd.AddCommand(addZoneCmd)
	rootCmd.AddCommand(updateZoneCmd)
	rootCmd.AddCommand(delZoneCmd)
	rootCmd.AddCommand(zoneStatusCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(forceTransferCmd)
}
