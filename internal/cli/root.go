// Package cli implements the photo-bridge command line surface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aube-labs-dev/photo-bridge/internal/config"
	"github.com/aube-labs-dev/photo-bridge/internal/ui"
)

var flagOpts config.Options

var rootCmd = &cobra.Command{
	Use:           "photo-bridge",
	Short:         "Send files directly between devices through a shared room",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagOpts.ServerURL, "server", "", "signaling relay websocket URL")
	pf.StringVar(&flagOpts.STUNServer, "stun", "", "STUN server URL")
	pf.StringVar(&flagOpts.TURNServer, "turn", "", "TURN server host")
	pf.StringVar(&flagOpts.TURNUser, "turn-user", "", "TURN username")
	pf.StringVar(&flagOpts.TURNPass, "turn-pass", "", "TURN password")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)
}

// Execute runs the CLI. Ctrl-C cancels the command context so in-flight
// sessions tear down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
