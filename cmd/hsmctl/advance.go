package main

import (
	"fmt"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/moffa90/go-powhsm/dongle"
	"github.com/moffa90/go-powhsm/rskblock"
)

// Brothers are only understood by firmware from this version on.
const brothersMinVersion = "2.1.0"

var advanceQuiet bool

// advanceCmd uploads a batch of block headers.
// Example:
//
//	hsmctl advance blocks.txt
var advanceCmd = &cobra.Command{
	Use:   "advance <batch-file>",
	Short: "Advance the device blockchain with a batch of block headers",
	Long: `Uploads the block headers in a batch file. Each line holds one RLP
encoded header in hex; lines starting with '+' are brothers of the block
above them and lines starting with '#' are comments.`,
	Example: `hsmctl advance blocks.txt --transport tcp`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := rskblock.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load batch: %w", err)
		}

		total := 0
		for i, b := range batch.Blocks {
			total += len(b)
			for _, bro := range batch.Brothers[i] {
				total += len(bro)
			}
		}

		ctx, cancel := commandContext()
		defer cancel()

		// bar is started only once nothing but the upload can fail.
		var bar *pb.ProgressBar
		d, err := connect(ctx, dongle.WithProgressCallback(func(p dongle.Progress) {
			if bar != nil {
				bar.SetCurrent(int64(p.BytesSent))
			}
		}))
		if err != nil {
			return err
		}
		defer disconnect(d)

		if batch.BrotherCount() > 0 {
			if _, err := d.RequireVersion(ctx, brothersMinVersion); err != nil {
				return fmt.Errorf("batch has brothers: %w", err)
			}
		}

		if !advanceQuiet {
			bar = pb.Full.Start(total)
		}
		ok, result := d.AdvanceBlockchain(ctx, batch.Blocks, batch.Brothers)
		if bar != nil {
			bar.Finish()
		}
		if !ok {
			return fmt.Errorf("advance blockchain failed: %s (%d)", result, result)
		}
		klog.V(1).InfoS("Advance blockchain done", "blocks", batch.Len(), "brothers", batch.BrotherCount())
		fmt.Printf("advance blockchain: %s (%d blocks, %d brothers)\n", result, batch.Len(), batch.BrotherCount())
		return nil
	},
}

func init() {
	advanceCmd.Flags().BoolVarP(&advanceQuiet, "quiet", "q", false, "do not show a progress bar")
	rootCmd.AddCommand(advanceCmd)
}
