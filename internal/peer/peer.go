// Package peer drives the per-remote-peer negotiation handshake.
//
// Each remote peer gets one Session, a small state machine fed by the
// directives and handshake messages arriving from the signaling relay. The
// actual connectivity machinery (ICE, transport security, channel setup) is
// an external collaborator behind the Link interface; the orchestrator only
// sequences it and never inspects descriptions or candidates.
package peer

import "encoding/json"

// Link is the connectivity collaborator for a single remote peer.
// Descriptions and candidates are opaque payloads produced and consumed by
// the implementation; the orchestrator relays them as-is.
type Link interface {
	// Offer opens the outbound application channel and produces the
	// local offer description.
	Offer() (json.RawMessage, error)

	// Answer applies the remote offer and produces the local answer
	// description.
	Answer(offer json.RawMessage) (json.RawMessage, error)

	// AcceptAnswer applies the remote answer description.
	AcceptAnswer(answer json.RawMessage) error

	// AddCandidate applies a remote connectivity candidate. The
	// orchestrator only calls this once a remote description has been
	// applied.
	AddCandidate(candidate json.RawMessage) error

	Close() error
}

// Channel is an established, ordered, reliable message transport to one
// remote peer.
type Channel interface {
	// Send transmits a binary message.
	Send(data []byte) error

	// SendText transmits a structured text message.
	SendText(data []byte) error

	// OnMessage registers the handler for inbound messages.
	OnMessage(fn func(data []byte, isText bool))

	Close() error
}

// LinkEvents carries the callbacks through which a Link reports what the
// underlying connection is doing.
type LinkEvents struct {
	// OnCandidate fires for every local candidate that must be relayed
	// to the remote peer.
	OnCandidate func(candidate json.RawMessage)

	// OnChannel fires once the application channel with the remote peer
	// is usable.
	OnChannel func(ch Channel)

	// OnClose fires when the connection with the remote peer ends.
	OnClose func()
}

// LinkFactory creates a Link for a remote peer.
type LinkFactory interface {
	NewLink(remoteID string, events LinkEvents) (Link, error)
}

// Signaler sends handshake messages to a remote peer through the relay.
type Signaler interface {
	SendOffer(targetID string, sdp json.RawMessage)
	SendAnswer(targetID string, sdp json.RawMessage)
	SendCandidate(targetID string, candidate json.RawMessage)
}

// Role says which side of the handshake this session plays. Only a peer
// that was already a room member when another peer joined initiates; the
// joiner only ever responds.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

func (r Role) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// State is the handshake progress of a Session.
type State int

const (
	StateIdle State = iota
	StateAwaitingLocalDescription
	StateLocalOfferSent
	StateLocalAnswerSent
	StateRemoteDescriptionApplied
	StateEstablished
	StateClosed
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:                     "idle",
	StateAwaitingLocalDescription: "awaiting-local-description",
	StateLocalOfferSent:           "local-offer-sent",
	StateLocalAnswerSent:          "local-answer-sent",
	StateRemoteDescriptionApplied: "remote-description-applied",
	StateEstablished:              "established",
	StateClosed:                   "closed",
	StateFailed:                   "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// terminal reports whether no further handshake messages are accepted.
func (s State) terminal() bool {
	return s == StateClosed || s == StateFailed
}
