package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/aube-labs-dev/photo-bridge/internal/files"
)

// TransferResult records the outcome of sending one file to one peer.
type TransferResult struct {
	Peer     string
	FileName string
	Size     int64
	Duration time.Duration
	Err      error
}

// PrintRoomBanner shows the room id and server so the other side can join.
func PrintRoomBanner(roomID, serverURL string) {
	content := fmt.Sprintf("%s\n%s %s\n%s %s",
		TitleStyle.Render("photo-bridge"),
		MutedStyle.Render("room:"), roomID,
		MutedStyle.Render("server:"), serverURL)
	fmt.Println(boxStyle.Render(content))
}

// PrintSummary renders the per-peer transfer results.
func PrintSummary(results []TransferResult) {
	if len(results) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Peer", "File", "Size", "Time", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Size", Align: text.AlignRight},
		{Name: "Time", Align: text.AlignRight},
	})

	for _, r := range results {
		status := SuccessStyle.Render("sent")
		if r.Err != nil {
			status = ErrorStyle.Render("failed")
		}
		t.AppendRow(table.Row{
			shortPeer(r.Peer),
			r.FileName,
			files.FormatSize(r.Size),
			r.Duration.Round(10 * time.Millisecond).String(),
			status,
		})
	}
	t.Render()
}

func shortPeer(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
