// clipwave: clipboard sync and chat over a local broadcast network.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipwave/clipwave/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipwave",
		Short: "Clipboard sync and chat over a local broadcast network",
		Long: `clipwave propagates clipboard content (text or image) between peers on a
local network and carries free-text chat over the same transport. Peers on
the same LAN find each other via mDNS; remote peers can be dialed explicitly
with --connect.

Run "clipwave run" on each host. Pass --clipboard to enable clipboard sync;
chat is always on.

Config file search order (first found wins):
  /etc/clipwave/clipwave.toml
  $HOME/.config/clipwave/clipwave.toml
  path supplied via --config

All flags can be set via CLIPWAVE_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipwave %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	logging.Setup(format, level)
}
