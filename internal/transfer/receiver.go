package transfer

import (
	"bytes"
	"log/slog"
	"sync"
)

// File is a fully reassembled inbound file.
type File struct {
	Name string
	Type string
	Data []byte
}

// session is the receiver-side state of one in-flight file. At most one
// exists per remote peer: a new file_info discards any incomplete
// predecessor, there is no resume.
type session struct {
	name     string
	ftype    string
	total    int64
	received int64
	chunks   [][]byte
}

// Receiver reassembles chunked files arriving from remote peers. Channel
// callbacks may fire from independent per-peer goroutines, so the session
// table is locked; sessions themselves are only touched under that lock.
type Receiver struct {
	mu       sync.Mutex
	sessions map[string]*session

	// Deliver is invoked with every completed file.
	Deliver func(remoteID string, f File)

	// Warn is invoked for data-integrity conditions: a size mismatch at
	// file_end, or a chunk with no active session. Optional.
	Warn func(remoteID string, reason string)
}

// NewReceiver creates a receiver delivering completed files to the given
// callback.
func NewReceiver(deliver func(remoteID string, f File)) *Receiver {
	return &Receiver{
		sessions: make(map[string]*session),
		Deliver:  deliver,
	}
}

// HandleText processes a text message from the channel with the given
// remote peer. Payloads that are not valid control messages are plain text
// log lines, not errors.
func (r *Receiver) HandleText(remoteID string, data []byte) {
	ctl, ok := parseControl(data)
	if !ok {
		slog.Info("peer text message", "remote", remoteID, "text", string(data))
		return
	}

	switch ctl.Type {
	case ControlFileInfo:
		r.begin(remoteID, ctl)
	case ControlFileEnd:
		r.finish(remoteID, ctl)
	}
}

// HandleBinary processes a binary chunk from the channel with the given
// remote peer. A chunk with no active session is discarded.
func (r *Receiver) HandleBinary(remoteID string, data []byte) {
	r.mu.Lock()
	sess, ok := r.sessions[remoteID]
	if !ok {
		r.mu.Unlock()
		slog.Warn("chunk with no active transfer, discarding", "remote", remoteID, "bytes", len(data))
		r.warn(remoteID, "chunk with no active transfer")
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	sess.chunks = append(sess.chunks, chunk)
	sess.received += int64(len(chunk))
	r.mu.Unlock()
}

// Drop discards any in-flight session for the remote peer. Used when the
// peer's channel closes or the peer disconnects.
func (r *Receiver) Drop(remoteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, remoteID)
}

// begin opens a fresh session, discarding any incomplete one.
func (r *Receiver) begin(remoteID string, ctl Control) {
	r.mu.Lock()
	if old, ok := r.sessions[remoteID]; ok {
		slog.Warn("discarding incomplete transfer", "remote", remoteID, "file", old.name)
	}
	r.sessions[remoteID] = &session{
		name:  ctl.FileName,
		ftype: ctl.FileType,
		total: ctl.TotalSize,
	}
	r.mu.Unlock()
	slog.Info("incoming file", "remote", remoteID, "file", ctl.FileName, "size", ctl.TotalSize)
}

// finish concatenates the session's chunks in arrival order, hands the
// result to the consumer and destroys the session. A size mismatch is
// reported as a warning; the session is discarded either way.
func (r *Receiver) finish(remoteID string, ctl Control) {
	r.mu.Lock()
	sess, ok := r.sessions[remoteID]
	if !ok {
		r.mu.Unlock()
		slog.Warn("file_end with no active transfer", "remote", remoteID, "file", ctl.FileName)
		return
	}
	delete(r.sessions, remoteID)
	r.mu.Unlock()

	if sess.received != sess.total {
		slog.Warn("transfer size mismatch",
			"remote", remoteID, "file", sess.name,
			"received", sess.received, "declared", sess.total)
		r.warn(remoteID, ErrSizeMismatch.Error())
	}

	data := bytes.Join(sess.chunks, nil)
	if r.Deliver != nil {
		r.Deliver(remoteID, File{Name: sess.name, Type: sess.ftype, Data: data})
	}
}

func (r *Receiver) warn(remoteID, reason string) {
	if r.Warn != nil {
		r.Warn(remoteID, reason)
	}
}
