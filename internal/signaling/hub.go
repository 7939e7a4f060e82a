package signaling

import (
	"encoding/json"
	"log/slog"
)

// Hub is the message relay at the center of the signaling server. It owns
// the room registry and the table of live connections.
//
// All state is managed from the single goroutine running Run: every inbound
// envelope is handled to completion before the next one, so registry
// mutations need no locking.
type Hub struct {
	registry *Registry

	// clients maps relay-assigned peer ids to live connections.
	clients map[string]*Client

	// Register is the channel for newly accepted connections.
	Register chan *Client

	// Unregister is the channel for connections that have been lost.
	Unregister chan *Client

	// Inbound carries every envelope read from a client connection.
	Inbound chan *Envelope
}

// NewHub creates a hub with an empty registry.
func NewHub() *Hub {
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Envelope),
	}
}

// Run starts the hub's event loop. It never returns.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client.ID] = client
			client.Send <- mustEnvelope(EventConnected, ConnectedPayload{PeerID: client.ID})
			slog.Info("client connected", "peer", client.ID)

		case client := <-h.Unregister:
			h.disconnect(client)

		case env := <-h.Inbound:
			h.dispatch(env)
		}
	}
}

func (h *Hub) dispatch(env *Envelope) {
	switch env.Event {
	case EventCreateOrJoinRoom:
		var join JoinPayload
		if err := json.Unmarshal(env.Data, &join); err != nil || join.RoomID == "" {
			h.reject(env.from, "invalid join payload")
			return
		}
		h.join(join.RoomID, env.from)

	case EventOffer, EventAnswer, EventICECandidate:
		var signal SignalPayload
		if err := json.Unmarshal(env.Data, &signal); err != nil || signal.TargetID == "" {
			h.reject(env.from, "invalid signal payload")
			return
		}
		h.relay(env.Event, &signal, env.from)

	default:
		slog.Warn("unknown event", "event", env.Event, "peer", env.from.ID)
		h.reject(env.from, "unknown event: "+env.Event)
	}
}

// join adds the peer to the room and emits the membership events. When the
// room already has other members, every pre-existing member is directed to
// initiate a handshake toward the joiner; the joiner itself only responds.
func (h *Hub) join(roomID string, client *Client) {
	room, added := h.registry.Join(roomID, client.ID)
	if !added {
		slog.Info("peer already in room", "peer", client.ID, "room", roomID)
		return
	}
	slog.Info("peer joined room", "peer", client.ID, "room", roomID, "members", len(room.Members))

	joined := mustEnvelope(EventRoomJoined, RoomJoinedPayload{
		PeerID:       client.ID,
		RoomID:       roomID,
		TotalMembers: len(room.Members),
	})
	for _, memberID := range room.Members {
		h.deliver(memberID, joined)
	}

	if len(room.Members) < 2 {
		return
	}
	client.Send <- mustEnvelope(EventReadyToConnect, ReadyPayload{RoomID: roomID})
	for _, memberID := range room.Members {
		if memberID == client.ID {
			continue
		}
		h.deliver(memberID, mustEnvelope(EventOfferNeeded, OfferNeededPayload{NewPeerID: client.ID}))
	}
}

// relay forwards a handshake message to the connection named by its target
// id, substituting the sender id. Targets are trusted by identifier alone;
// an unknown target means the message is dropped, fire and forget.
func (h *Hub) relay(event string, signal *SignalPayload, sender *Client) {
	target, ok := h.clients[signal.TargetID]
	if !ok {
		slog.Debug("relay target gone, dropping", "event", event, "target", signal.TargetID, "sender", sender.ID)
		return
	}
	out := SignalPayload{
		SenderID:  sender.ID,
		SDP:       signal.SDP,
		Candidate: signal.Candidate,
	}
	slog.Info("relaying signal", "event", event, "sender", sender.ID, "target", target.ID)
	target.Send <- mustEnvelope(event, out)
}

// disconnect removes the peer from every room containing it, deleting rooms
// it empties and notifying the remainders of the others. It runs exactly
// once per connection loss: the read pump is the only sender on Unregister.
func (h *Hub) disconnect(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	slog.Info("client disconnected", "peer", client.ID)

	for _, room := range h.registry.RoomsWith(client.ID) {
		_, deleted := h.registry.Leave(room.ID, client.ID)
		if deleted {
			slog.Info("room deleted", "room", room.ID)
			continue
		}
		updated := mustEnvelope(EventRoomUpdated, RoomUpdatedPayload{
			RoomID:  room.ID,
			Members: room.Members,
		})
		for _, memberID := range room.Members {
			h.deliver(memberID, updated)
		}
	}

	close(client.Send)
}

func (h *Hub) deliver(peerID string, env *Envelope) {
	client, ok := h.clients[peerID]
	if !ok {
		return
	}
	client.Send <- env
}

func (h *Hub) reject(client *Client, reason string) {
	client.Send <- mustEnvelope(EventError, ErrorPayload{Error: reason})
}
