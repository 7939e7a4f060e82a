package rtc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/aube-labs-dev/photo-bridge/internal/peer"
)

// link is the pion-backed connectivity collaborator for one remote peer.
type link struct {
	remoteID string
	pc       *webrtc.PeerConnection
	events   peer.LinkEvents

	closeOnce sync.Once
}

func (l *link) setupHandlers() {
	l.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			// Gathering finished; trickle ICE has nothing more to send.
			return
		}
		candidate, err := json.Marshal(c.ToJSON())
		if err != nil {
			slog.Warn("failed to encode local candidate", "remote", l.remoteID, "err", err)
			return
		}
		if l.events.OnCandidate != nil {
			l.events.OnCandidate(candidate)
		}
	})

	l.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Debug("peer connection state", "remote", l.remoteID, "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateDisconnected,
			webrtc.PeerConnectionStateClosed:
			l.fireClose()
		}
	})

	// Responder side: the initiator creates the channel, we adopt it.
	l.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != channelLabel {
			slog.Warn("rejecting unexpected data channel", "remote", l.remoteID, "label", dc.Label())
			dc.Close()
			return
		}
		l.adoptChannel(dc)
	})
}

// Offer opens the outbound data channel and produces the local offer. The
// description is returned immediately; candidates trickle through
// OnCandidate as they are gathered.
func (l *link) Offer() (json.RawMessage, error) {
	ordered := true
	dc, err := l.pc.CreateDataChannel(channelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	l.adoptChannel(dc)

	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return marshalDescription(l.pc.LocalDescription())
}

// Answer applies the remote offer and produces the local answer.
func (l *link) Answer(offer json.RawMessage) (json.RawMessage, error) {
	remote, err := unmarshalDescription(offer)
	if err != nil {
		return nil, err
	}
	if err := l.pc.SetRemoteDescription(remote); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}

	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return marshalDescription(l.pc.LocalDescription())
}

// AcceptAnswer applies the remote answer.
func (l *link) AcceptAnswer(answer json.RawMessage) error {
	remote, err := unmarshalDescription(answer)
	if err != nil {
		return err
	}
	if err := l.pc.SetRemoteDescription(remote); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

// AddCandidate applies a remote ICE candidate.
func (l *link) AddCandidate(candidate json.RawMessage) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(candidate, &init); err != nil {
		return fmt.Errorf("decode candidate: %w", err)
	}
	if err := l.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("add candidate: %w", err)
	}
	return nil
}

func (l *link) Close() error {
	return l.pc.Close()
}

// adoptChannel wires a data channel into the link, surfacing it through
// OnChannel once open. Only ordered, reliable channels are accepted; the
// transfer engine depends on in-order delivery.
func (l *link) adoptChannel(dc *webrtc.DataChannel) {
	if !dc.Ordered() || dc.MaxPacketLifeTime() != nil || dc.MaxRetransmits() != nil {
		slog.Error("rejecting unordered or lossy data channel", "remote", l.remoteID, "label", dc.Label())
		dc.Close()
		return
	}

	ch := &channel{dc: dc}
	dc.OnOpen(func() {
		if l.events.OnChannel != nil {
			l.events.OnChannel(ch)
		}
	})
	dc.OnClose(func() {
		l.fireClose()
	})
}

func (l *link) fireClose() {
	l.closeOnce.Do(func() {
		if l.events.OnClose != nil {
			l.events.OnClose()
		}
	})
}

func marshalDescription(desc *webrtc.SessionDescription) (json.RawMessage, error) {
	if desc == nil {
		return nil, fmt.Errorf("no local description")
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("encode description: %w", err)
	}
	return data, nil
}

func unmarshalDescription(data json.RawMessage) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return desc, fmt.Errorf("decode description: %w", err)
	}
	return desc, nil
}
