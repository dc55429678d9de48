package main

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/moffa90/go-powhsm/protocol"
)

var pin string

var unlockCmd = &cobra.Command{
	Use:     "unlock",
	Short:   "Unlock the device with its PIN",
	Example: `hsmctl unlock --pin 1234abcd`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		ok, err := d.Unlock(ctx, []byte(pin))
		if err != nil {
			return fmt.Errorf("failed to unlock: %w", err)
		}
		if !ok {
			retries, err := d.Retries(ctx)
			if err != nil {
				return errors.New("wrong PIN")
			}
			return fmt.Errorf("wrong PIN, %d attempts left", retries)
		}
		fmt.Println("device unlocked")
		return nil
	},
}

var newPinCmd = &cobra.Command{
	Use:     "new-pin",
	Short:   "Change the PIN of an unlocked device",
	Example: `hsmctl new-pin --pin 5678efgh`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		if err := d.NewPin(ctx, []byte(pin)); err != nil {
			return fmt.Errorf("failed to change PIN: %w", err)
		}
		fmt.Println("PIN changed")
		return nil
	},
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Wipe the device and onboard it with a fresh random seed",
	Long: `Generates a random seed, uploads it together with the PIN and asks
the device to derive its keys. All keys on the device are lost.`,
	Example: `hsmctl onboard --pin 1234abcd`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		onboarded, err := d.IsOnboarded(ctx)
		if err != nil {
			return fmt.Errorf("failed to get onboarding status: %w", err)
		}
		if onboarded {
			klog.Warning("Device is already onboarded; its keys will be replaced")
		}

		seed := make([]byte, protocol.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return fmt.Errorf("failed to generate seed: %w", err)
		}
		if err := d.Onboard(ctx, seed, []byte(pin)); err != nil {
			return fmt.Errorf("failed to onboard: %w", err)
		}
		fmt.Println("device onboarded")
		return nil
	},
}

var autoexec bool

var exitCmd = &cobra.Command{
	Use:     "exit",
	Short:   "Leave the bootloader menu",
	Example: `hsmctl exit --autoexec=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		if err := d.ExitMenu(ctx, autoexec); err != nil {
			return fmt.Errorf("failed to exit menu: %w", err)
		}
		return nil
	},
}

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Check the device answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := connect(ctx)
		if err != nil {
			return err
		}
		defer disconnect(d)

		ok, err := d.Echo(ctx)
		if err != nil {
			return fmt.Errorf("echo failed: %w", err)
		}
		fmt.Printf("echo ok: %v\n", ok)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{unlockCmd, newPinCmd, onboardCmd} {
		c.Flags().StringVar(&pin, "pin", "", "device PIN")
		c.MarkFlagRequired("pin")
	}
	exitCmd.Flags().BoolVar(&autoexec, "autoexec", true, "start the signer app on exit")
	rootCmd.AddCommand(unlockCmd, newPinCmd, onboardCmd, exitCmd, echoCmd)
}
