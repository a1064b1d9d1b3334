package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipwave/clipwave/internal/node"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a clipwave node (chat + optional clipboard sync)",
		Long: `Starts a clipwave node. The node joins the chat topic immediately; pass
--clipboard to also monitor the local clipboard and apply updates from peers.

Peers on the same LAN are discovered via mDNS. Remote peers can be dialed
explicitly with --connect (repeatable, multiaddr form, e.g.
/ip4/192.168.1.10/tcp/4001/p2p/<peer-id>).

Precedence (lowest → highest): defaults → config file → CLIPWAVE_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runNode(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("listen", "0.0.0.0", "IP address to listen on")
	f.Int("port", 0, "TCP listen port (0 = OS-assigned)")
	f.StringSlice("connect", nil, "peer multiaddrs to dial on startup")
	f.Bool("clipboard", false, "enable clipboard sync")
	f.Duration("interval", 500*time.Millisecond, "clipboard sampling interval")
	f.String("topic-prefix", "clipwave", "topic namespace shared by all peers")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runNode(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return node.Run(ctx, node.Config{
		ListenIP:    v.GetString("listen"),
		Port:        v.GetInt("port"),
		Connect:     v.GetStringSlice("connect"),
		Clipboard:   v.GetBool("clipboard"),
		Interval:    v.GetDuration("interval"),
		TopicPrefix: v.GetString("topic-prefix"),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
	})
}
