// hsmctl administers a powHSM device from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/moffa90/go-powhsm/dongle"
	"github.com/moffa90/go-powhsm/transport/hid"
	"github.com/moffa90/go-powhsm/transport/tcp"
)

// Configuration keys. Each can be set by flag or by HSMCTL_<KEY> in the environment.
const (
	cfgTransport = "transport"
	cfgHost      = "host"
	cfgPort      = "port"
	cfgPath      = "path"
	cfgTimeout   = "timeout"
)

var rootCmd = &cobra.Command{
	Use:   "hsmctl",
	Short: "Administer a powHSM device",
	Long: `hsmctl talks to a powHSM device over USB or TCP. It can query the
device state, advance its blockchain, sign hashes and manage the PIN.`,
	SilenceUsage: true,
}

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.PersistentFlags().String(cfgTransport, "hid", "transport to use: hid or tcp")
	rootCmd.PersistentFlags().String(cfgHost, "127.0.0.1", "device host (tcp)")
	rootCmd.PersistentFlags().Int(cfgPort, 8888, "device port (tcp)")
	rootCmd.PersistentFlags().String(cfgPath, "", "device path (hid); first device when empty")
	rootCmd.PersistentFlags().Duration(cfgTimeout, dongle.DefaultTimeout, "exchange timeout")

	for _, key := range []string{cfgTransport, cfgHost, cfgPort, cfgPath, cfgTimeout} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
	viper.SetEnvPrefix("HSMCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func opener() (dongle.Opener, error) {
	switch t := viper.GetString(cfgTransport); t {
	case "hid":
		return hid.Opener(viper.GetString(cfgPath)), nil
	case "tcp":
		return tcp.Opener(viper.GetString(cfgHost), viper.GetInt(cfgPort)), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", t)
	}
}

// connect opens the configured device. The caller must Disconnect it.
func connect(ctx context.Context, opts ...dongle.Option) (*dongle.Dongle, error) {
	open, err := opener()
	if err != nil {
		return nil, err
	}
	opts = append([]dongle.Option{dongle.WithTimeout(viper.GetDuration(cfgTimeout))}, opts...)
	d := dongle.New(open, opts...)
	if err := d.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return d, nil
}

// disconnect closes d, logging rather than returning a close failure.
func disconnect(d *dongle.Dongle) {
	if err := d.Disconnect(); err != nil {
		klog.Warningf("Failed to disconnect: %v", err)
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Minute)
}

func main() {
	err := rootCmd.Execute()
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
