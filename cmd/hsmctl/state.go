package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// stateCmd prints the device's blockchain state.
// Example:
//
//	hsmctl state
var stateCmd = &cobra.Command{
	Use:     "state",
	Short:   "Print the device blockchain state",
	Example: `hsmctl state --transport tcp --port 8888`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		state, err := d.GetBlockchainState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get blockchain state: %w", err)
		}
		out, err := json.MarshalIndent(state.Map(), "", "    ")
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Reset an advance-blockchain upload in progress",
	Example: `hsmctl reset`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		if err := d.ResetAdvanceBlockchain(ctx); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		fmt.Println("advance blockchain reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd, resetCmd)
}
