package transfer

import "encoding/json"

// ChunkSize is the upper bound for a single binary chunk on the channel.
const ChunkSize = 16 * 1024

// Control message types framed as structured text on the channel. File
// bytes travel as raw binary messages between the two.
const (
	ControlFileInfo = "file_info"
	ControlFileEnd  = "file_end"
)

// Control is the channel-level control message. Type discriminates the
// variant; file_info carries the full metadata, file_end only the name.
type Control struct {
	Type      string `json:"type"`
	FileName  string `json:"fileName,omitempty"`
	FileType  string `json:"fileType,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
}

// FileInfo describes a file about to be sent.
type FileInfo struct {
	Name string
	Type string
	Size int64
}

// parseControl decodes a text payload into a control message. The second
// return value is false when the payload is not structured control data at
// all, in which case it is treated as a plain text log line.
func parseControl(data []byte) (Control, bool) {
	var ctl Control
	if err := json.Unmarshal(data, &ctl); err != nil {
		return Control{}, false
	}
	if ctl.Type != ControlFileInfo && ctl.Type != ControlFileEnd {
		return Control{}, false
	}
	return ctl, true
}
