package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Orchestrator owns the table of negotiation sessions, one per remote
// peer. It turns relay directives and handshake messages into state machine
// transitions, creating sessions lazily on the first event that references
// a remote id.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*Session

	links   LinkFactory
	signals Signaler

	// OnChannel is invoked once a session's channel becomes usable.
	OnChannel func(remoteID string, ch Channel)

	// OnClosed is invoked after a session is torn down, so dependent
	// state (an in-flight transfer, say) can be discarded.
	OnClosed func(remoteID string)
}

// NewOrchestrator creates an orchestrator with an empty session table.
func NewOrchestrator(links LinkFactory, signals Signaler) *Orchestrator {
	return &Orchestrator{
		sessions: make(map[string]*Session),
		links:    links,
		signals:  signals,
	}
}

// Initiate reacts to the relay's directive to open a handshake toward a
// newly joined peer. The local peer acts as initiator.
func (o *Orchestrator) Initiate(remoteID string) error {
	session, err := o.ensure(remoteID, RoleInitiator)
	if err != nil {
		return err
	}
	if session.Role() != RoleInitiator {
		return fmt.Errorf("session with %s already exists as %s", remoteID, session.Role())
	}
	return session.initiate(o.signals)
}

// HandleOffer reacts to an offer relayed from a remote peer. The local
// peer acts as responder; the session is created lazily if this is the
// first event referencing the sender.
func (o *Orchestrator) HandleOffer(remoteID string, sdp json.RawMessage) error {
	session, err := o.ensure(remoteID, RoleResponder)
	if err != nil {
		return err
	}
	return session.handleOffer(sdp, o.signals)
}

// HandleAnswer reacts to an answer relayed from a remote peer. An answer
// for an unknown remote is a protocol violation: no local offer can ever
// have been sent.
func (o *Orchestrator) HandleAnswer(remoteID string, sdp json.RawMessage) error {
	session, ok := o.lookup(remoteID)
	if !ok {
		err := fmt.Errorf("answer from %s without a session", remoteID)
		slog.Warn("negotiation protocol violation", "remote", remoteID, "err", err)
		return err
	}
	return session.handleAnswer(sdp)
}

// HandleCandidate reacts to a connectivity candidate relayed from a remote
// peer. Candidates may arrive ahead of the description they belong to; the
// session buffers them as needed.
func (o *Orchestrator) HandleCandidate(remoteID string, candidate json.RawMessage) error {
	session, err := o.ensure(remoteID, RoleResponder)
	if err != nil {
		return err
	}
	session.handleCandidate(candidate)
	return nil
}

// Session returns the live session for a remote peer, if any.
func (o *Orchestrator) Session(remoteID string) (*Session, bool) {
	return o.lookup(remoteID)
}

// Close tears down every session. Used when the relay connection is lost.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.sessions = make(map[string]*Session)
	o.mu.Unlock()

	for _, s := range sessions {
		s.close()
		if o.OnClosed != nil {
			o.OnClosed(s.remoteID)
		}
	}
}

func (o *Orchestrator) lookup(remoteID string) (*Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	session, ok := o.sessions[remoteID]
	return session, ok
}

// ensure returns the session for the remote peer, creating it (and its
// link) if this is the first event referencing that id. At most one session
// exists per remote peer.
func (o *Orchestrator) ensure(remoteID string, role Role) (*Session, error) {
	o.mu.Lock()
	if session, ok := o.sessions[remoteID]; ok {
		o.mu.Unlock()
		return session, nil
	}

	session := &Session{
		remoteID: remoteID,
		role:     role,
		state:    StateIdle,
	}
	o.sessions[remoteID] = session
	o.mu.Unlock()

	link, err := o.links.NewLink(remoteID, LinkEvents{
		OnCandidate: func(candidate json.RawMessage) {
			o.signals.SendCandidate(remoteID, candidate)
		},
		OnChannel: func(ch Channel) {
			session.established()
			slog.Info("peer channel established", "remote", remoteID)
			if o.OnChannel != nil {
				o.OnChannel(remoteID, ch)
			}
		},
		OnClose: func() {
			o.remove(remoteID)
		},
	})
	if err != nil {
		o.mu.Lock()
		delete(o.sessions, remoteID)
		o.mu.Unlock()
		return nil, fmt.Errorf("create link for %s: %w", remoteID, err)
	}
	session.link = link
	return session, nil
}

// remove tears down one session, triggered by the channel closing.
func (o *Orchestrator) remove(remoteID string) {
	o.mu.Lock()
	session, ok := o.sessions[remoteID]
	if ok {
		delete(o.sessions, remoteID)
	}
	o.mu.Unlock()
	if !ok {
		return
	}

	session.close()
	slog.Info("peer session closed", "remote", remoteID)
	if o.OnClosed != nil {
		o.OnClosed(remoteID)
	}
}
