package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/aube-labs-dev/photo-bridge/internal/config"
	"github.com/aube-labs-dev/photo-bridge/internal/files"
	"github.com/aube-labs-dev/photo-bridge/internal/peer"
	"github.com/aube-labs-dev/photo-bridge/internal/transfer"
	"github.com/aube-labs-dev/photo-bridge/internal/ui"
)

var sendRoom string

var sendCmd = &cobra.Command{
	Use:   "send <file> [file...]",
	Short: "Send files to every peer that joins the room",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendRoom, "room", "", "room to share (generated when omitted)")
}

type connectedPeer struct {
	id string
	ch peer.Channel
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	toSend := make([]files.Info, 0, len(args))
	for _, path := range args {
		info, err := files.Validate(path)
		if err != nil {
			return err
		}
		toSend = append(toSend, info)
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

	roomID := sendRoom
	if roomID == "" {
		roomID = newRoomID()
	}

	peers := make(chan connectedPeer, 8)
	conn.Orchestrator.OnChannel = func(remoteID string, ch peer.Channel) {
		peers <- connectedPeer{id: remoteID, ch: ch}
	}

	if _, err := conn.JoinRoom(ctx, roomID); err != nil {
		return err
	}
	ui.PrintRoomBanner(roomID, cfg.ServerURL)
	ui.PrintInfo("waiting for peers, press Ctrl-C to stop")

	runErr := make(chan error, 1)
	go func() { runErr <- conn.Run(ctx) }()

	var results []ui.TransferResult
	for {
		select {
		case p := <-peers:
			ui.PrintInfo("peer %s connected", p.id)
			results = append(results, sendAll(p, toSend)...)

		case err := <-runErr:
			ui.PrintSummary(results)
			return err

		case <-ctx.Done():
			ui.PrintSummary(results)
			return nil
		}
	}
}

// sendAll streams every file to one peer in order, continuing past
// per-file failures so one bad transfer does not starve the rest.
func sendAll(p connectedPeer, toSend []files.Info) []ui.TransferResult {
	results := make([]ui.TransferResult, 0, len(toSend))
	for _, info := range toSend {
		start := time.Now()
		err := sendOne(p.ch, info)
		results = append(results, ui.TransferResult{
			Peer:     p.id,
			FileName: info.Name,
			Size:     info.Size,
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			ui.PrintError("send %s to %s: %v", info.Name, p.id, err)
		} else {
			ui.PrintSuccess("sent %s (%s) to %s", info.Name, files.FormatSize(info.Size), p.id)
		}
	}
	return results
}

func sendOne(ch peer.Channel, info files.Info) error {
	f, err := os.Open(info.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", info.Path, err)
	}
	defer f.Close()

	bar := progressbar.DefaultBytes(info.Size, info.Name)
	defer bar.Finish()

	return transfer.SendFile(ch, transfer.FileInfo{
		Name: info.Name,
		Type: info.Type,
		Size: info.Size,
	}, f, func(sent int64) {
		bar.Set64(sent)
	})
}
