package transfer

import (
	"encoding/json"
	"io"
)

// Channel is the established peer transport the engine writes to. Send
// calls are cooperative backpressure: the next chunk is not read until the
// previous send was accepted.
type Channel interface {
	// Send transmits a binary message.
	Send(data []byte) error

	// SendText transmits a structured text message.
	SendText(data []byte) error
}

// SendFile streams one file over the channel: a file_info control message,
// the file body as consecutive binary chunks of at most ChunkSize bytes in
// file order, then a file_end control message. The optional progress
// callback reports the running byte count after every accepted chunk.
func SendFile(ch Channel, info FileInfo, r io.Reader, progress func(sent int64)) error {
	header, err := json.Marshal(Control{
		Type:      ControlFileInfo,
		FileName:  info.Name,
		FileType:  info.Type,
		TotalSize: info.Size,
	})
	if err != nil {
		return newFileError("marshal file_info", info.Name, err)
	}
	if err := ch.SendText(header); err != nil {
		return newFileError("send file_info", info.Name, err)
	}

	buf := make([]byte, ChunkSize)
	var sent int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			// Send accepts the chunk before the next read happens;
			// the chunk is copied because the channel may hold the
			// slice past this iteration.
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := ch.Send(chunk); err != nil {
				return newFileError("send chunk", info.Name, err)
			}
			sent += int64(n)
			if progress != nil {
				progress(sent)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return newFileError("read", info.Name, readErr)
		}
	}

	if sent < info.Size {
		return newFileError("send", info.Name, ErrShortFile)
	}

	footer, err := json.Marshal(Control{Type: ControlFileEnd, FileName: info.Name})
	if err != nil {
		return newFileError("marshal file_end", info.Name, err)
	}
	if err := ch.SendText(footer); err != nil {
		return newFileError("send file_end", info.Name, err)
	}
	return nil
}
