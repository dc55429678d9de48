package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-powhsm/protocol"
)

// versionCmd prints the device mode and, in signer mode, the firmware version.
// Example:
//
//	hsmctl version
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the device mode and firmware version",
	Example: `hsmctl version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		mode, err := d.CurrentMode(ctx)
		if err != nil {
			return fmt.Errorf("failed to get mode: %w", err)
		}
		fmt.Printf("mode: %s\n", mode)
		if mode != protocol.ModeSigner {
			return nil
		}

		v, err := d.Version(ctx)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("version: %s\n", v.Semver())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
