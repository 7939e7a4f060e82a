package signaling

import "encoding/json"

// Event names exchanged with the relay. The vocabulary is closed: an
// envelope carrying any other event is rejected at the boundary.
const (
	// client -> relay
	EventCreateOrJoinRoom = "create_or_join_room"

	// relay -> client
	EventConnected      = "connected"
	EventRoomJoined     = "room_joined"
	EventReadyToConnect = "ready_to_connect"
	EventOfferNeeded    = "offer_needed"
	EventRoomUpdated    = "room_updated"
	EventError          = "error"

	// relayed point-to-point, both directions
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice_candidate"
)

// Envelope is the frame for every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`

	// from is the client that sent the envelope. It is attached by the
	// read pump and never serialized.
	from *Client
}

// ConnectedPayload tells a freshly accepted client the peer id the relay
// assigned to its connection.
type ConnectedPayload struct {
	PeerID string `json:"peerId"`
}

// JoinPayload asks the relay to create a room if needed and join it.
type JoinPayload struct {
	RoomID string `json:"roomId"`
}

// RoomJoinedPayload is broadcast to every room member, joiner included.
type RoomJoinedPayload struct {
	PeerID       string `json:"peerId"`
	RoomID       string `json:"roomId"`
	TotalMembers int    `json:"totalMembers"`
}

// ReadyPayload tells the joiner the room already has other members and
// negotiation can begin.
type ReadyPayload struct {
	RoomID string `json:"roomId"`
}

// OfferNeededPayload directs an existing room member to initiate a
// handshake toward the newly joined peer.
type OfferNeededPayload struct {
	NewPeerID string `json:"newPeerId"`
}

// SignalPayload carries an offer, an answer or an ICE candidate through the
// relay. Inbound it names the target connection; outbound the relay
// replaces the target with the sender's id and forwards the rest untouched.
type SignalPayload struct {
	TargetID  string          `json:"targetId,omitempty"`
	SenderID  string          `json:"senderId,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// RoomUpdatedPayload is the ordered list of member ids remaining in a room
// after a member dropped off.
type RoomUpdatedPayload struct {
	RoomID  string   `json:"roomId"`
	Members []string `json:"members"`
}

// ErrorPayload is sent to a client whose message could not be processed.
type ErrorPayload struct {
	Error string `json:"error"`
}

func mustEnvelope(event string, payload any) *Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload types are our own closed structs; marshaling them
		// cannot fail at runtime.
		panic(err)
	}
	return &Envelope{Event: event, Data: data}
}
