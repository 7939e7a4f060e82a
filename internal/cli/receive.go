package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aube-labs-dev/photo-bridge/internal/config"
	"github.com/aube-labs-dev/photo-bridge/internal/files"
	"github.com/aube-labs-dev/photo-bridge/internal/peer"
	"github.com/aube-labs-dev/photo-bridge/internal/transfer"
	"github.com/aube-labs-dev/photo-bridge/internal/ui"
)

var (
	receiveRoom string
	receiveOut  string
)

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Join a room and save every file peers send",
	RunE:  runReceive,
}

func init() {
	receiveCmd.Flags().StringVar(&receiveRoom, "room", "", "room to join")
	receiveCmd.Flags().StringVar(&receiveOut, "out", ".", "directory to save received files in")
	receiveCmd.MarkFlagRequired("room")
}

func runReceive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	outDir, err := filepath.Abs(receiveOut)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	cfg, err := config.Load(flagOpts)
	if err != nil {
		return err
	}

	conn, err := Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	receiver := transfer.NewReceiver(func(remoteID string, f transfer.File) {
		path := files.UniqueName(outDir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			ui.PrintError("save %s from %s: %v", f.Name, remoteID, err)
			return
		}
		ui.PrintSuccess("received %s (%s) from %s", filepath.Base(path), files.FormatSize(int64(len(f.Data))), remoteID)
	})
	receiver.Warn = func(remoteID, reason string) {
		ui.PrintWarning("peer %s: %s", remoteID, reason)
	}

	conn.Orchestrator.OnChannel = func(remoteID string, ch peer.Channel) {
		ui.PrintInfo("peer %s connected", remoteID)
		ch.OnMessage(func(data []byte, isText bool) {
			if isText {
				receiver.HandleText(remoteID, data)
			} else {
				receiver.HandleBinary(remoteID, data)
			}
		})
	}
	conn.Orchestrator.OnClosed = func(remoteID string) {
		receiver.Drop(remoteID)
	}

	joined, err := conn.JoinRoom(ctx, receiveRoom)
	if err != nil {
		return err
	}
	ui.PrintRoomBanner(receiveRoom, cfg.ServerURL)
	ui.PrintInfo("joined as %s with %d member(s), waiting for files", conn.PeerID, joined.TotalMembers)

	return conn.Run(ctx)
}
