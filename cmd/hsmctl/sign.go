package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-powhsm/dongle"
)

var signKey string

// keyID resolves a well-known key name or a derivation path.
func keyID(s string) (dongle.KeyID, error) {
	if id, ok := dongle.KeyNames[s]; ok {
		return id, nil
	}
	id, err := dongle.ParseKeyID(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return id, nil
}

// signCmd signs a hash with a key that needs no authorization.
// Example:
//
//	hsmctl sign --key rsk 0x5a3f...
var signCmd = &cobra.Command{
	Use:     "sign <hash>",
	Short:   "Sign a hash with a key that needs no authorization",
	Example: `hsmctl sign --key rsk 7c1d0ee1a1fc7d4e3d9b6d1c0bb2cfd0d4e1a4c1d1b8e6a7f0a1d2c3b4a59687`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := keyID(signKey)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		sig, result := d.SignUnauthorized(ctx, id, args[0])
		if !result.OK() {
			return fmt.Errorf("signing failed: %s (%d)", result, result)
		}
		fmt.Println(sig)
		return nil
	},
}

// pubkeyCmd prints the public key of a signer key.
// Example:
//
//	hsmctl pubkey --key btc
var pubkeyCmd = &cobra.Command{
	Use:     "pubkey",
	Short:   "Print the public key of a signer key",
	Example: `hsmctl pubkey --key "m/44'/0'/0'/0/0"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := keyID(signKey)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		pub, err := d.GetPublicKey(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get public key: %w", err)
		}
		fmt.Printf("%s: %s\n", id, hex.EncodeToString(pub))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signCmd, pubkeyCmd} {
		c.Flags().StringVar(&signKey, "key", "rsk", "key name (btc, rsk, mst, tbtc, trsk, tmst) or derivation path")
		rootCmd.AddCommand(c)
	}
}
