package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Session is the negotiation state for one remote peer. All methods are
// called with events already demultiplexed by remote id; a session never
// shares mutable state with another session.
type Session struct {
	mu sync.Mutex

	remoteID string
	role     Role
	state    State
	link     Link

	// pending buffers remote candidates that arrived before the remote
	// description. Relay scheduling legitimately reorders candidates
	// ahead of the description they belong to; they are drained in
	// arrival order the moment the description is applied.
	pending []json.RawMessage

	remoteApplied bool
}

// RemoteID returns the id of the remote peer this session negotiates with.
func (s *Session) RemoteID() string {
	return s.remoteID
}

// Role returns the session's handshake role.
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// State returns the session's current handshake state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// initiate opens the outbound channel and produces the local offer.
func (s *Session) initiate(signals Signaler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("initiate in state %s", s.state)
	}
	s.state = StateAwaitingLocalDescription

	offer, err := s.link.Offer()
	if err != nil {
		s.failLocked("produce offer", err)
		return err
	}
	s.state = StateLocalOfferSent
	signals.SendOffer(s.remoteID, offer)
	return nil
}

// handleOffer applies the remote offer, produces the local answer and sends
// it back through the relay.
func (s *Session) handleOffer(offer json.RawMessage, signals Signaler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.terminal() {
		slog.Debug("dropping offer for dead session", "remote", s.remoteID, "state", s.state.String())
		return nil
	}
	if s.state != StateIdle {
		err := fmt.Errorf("offer in state %s", s.state)
		s.failLocked("apply offer", err)
		return err
	}
	s.state = StateAwaitingLocalDescription

	answer, err := s.link.Answer(offer)
	if err != nil {
		s.failLocked("produce answer", err)
		return err
	}
	s.remoteApplied = true
	s.state = StateRemoteDescriptionApplied
	s.drainCandidatesLocked()

	s.state = StateLocalAnswerSent
	signals.SendAnswer(s.remoteID, answer)
	return nil
}

// handleAnswer applies the remote answer. An answer is only legal while a
// local offer is outstanding; anything else is a protocol violation that
// fails the session.
func (s *Session) handleAnswer(answer json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.terminal() {
		slog.Debug("dropping answer for dead session", "remote", s.remoteID, "state", s.state.String())
		return nil
	}
	if s.state != StateLocalOfferSent {
		err := fmt.Errorf("answer in state %s", s.state)
		s.failLocked("apply answer", err)
		return err
	}

	if err := s.link.AcceptAnswer(answer); err != nil {
		s.failLocked("apply answer", err)
		return err
	}
	s.remoteApplied = true
	s.state = StateRemoteDescriptionApplied
	s.drainCandidatesLocked()
	return nil
}

// handleCandidate applies a remote candidate, or queues it while the remote
// description is still outstanding. A rejected candidate is non-fatal: the
// session stays active and the failure is logged.
func (s *Session) handleCandidate(candidate json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.terminal() {
		slog.Debug("dropping candidate for dead session", "remote", s.remoteID, "state", s.state.String())
		return
	}
	if !s.remoteApplied {
		s.pending = append(s.pending, candidate)
		return
	}
	if err := s.link.AddCandidate(candidate); err != nil {
		slog.Warn("failed to apply candidate", "remote", s.remoteID, "err", err)
	}
}

// drainCandidatesLocked applies queued candidates in arrival order. Called
// with the session lock held, immediately after the remote description is
// applied.
func (s *Session) drainCandidatesLocked() {
	for _, candidate := range s.pending {
		if err := s.link.AddCandidate(candidate); err != nil {
			slog.Warn("failed to apply buffered candidate", "remote", s.remoteID, "err", err)
		}
	}
	s.pending = nil
}

// established records that both sides report a usable channel.
func (s *Session) established() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.terminal() {
		return
	}
	s.state = StateEstablished
}

// close tears the session down.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.pending = nil
	if s.link != nil {
		s.link.Close()
	}
}

// failLocked moves the session to Failed. Further handshake messages for
// the session are dropped. Called with the session lock held.
func (s *Session) failLocked(op string, err error) {
	slog.Warn("negotiation failed", "remote", s.remoteID, "op", op, "state", s.state.String(), "err", err)
	s.state = StateFailed
	s.pending = nil
	if s.link != nil {
		s.link.Close()
	}
}
