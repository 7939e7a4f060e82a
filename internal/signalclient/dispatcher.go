package signalclient

import (
	"encoding/json"
	"log/slog"

	"github.com/aube-labs-dev/photo-bridge/internal/signaling"
)

// Dispatcher routes incoming relay envelopes to typed channels. Run it in
// its own goroutine. Negotiation channels must be drained by the consumer;
// the membership and status channels tolerate an absent consumer.
type Dispatcher struct {
	client *Client

	Connected      chan string
	RoomJoined     chan signaling.RoomJoinedPayload
	ReadyToConnect chan string
	OfferNeeded    chan string
	Offer          chan signaling.SignalPayload
	Answer         chan signaling.SignalPayload
	Candidate      chan signaling.SignalPayload
	RoomUpdated    chan signaling.RoomUpdatedPayload
	Errors         chan string

	// Disconnected is closed when the relay connection drops.
	Disconnected chan struct{}
}

// NewDispatcher creates a dispatcher over the client's incoming stream.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{
		client:         client,
		Connected:      make(chan string, 1),
		RoomJoined:     make(chan signaling.RoomJoinedPayload, 8),
		ReadyToConnect: make(chan string, 1),
		OfferNeeded:    make(chan string, 8),
		Offer:          make(chan signaling.SignalPayload, 32),
		Answer:         make(chan signaling.SignalPayload, 32),
		Candidate:      make(chan signaling.SignalPayload, 32),
		RoomUpdated:    make(chan signaling.RoomUpdatedPayload, 8),
		Errors:         make(chan string, 4),
		Disconnected:   make(chan struct{}),
	}
}

// Run consumes the incoming stream until the connection drops.
//
// Negotiation events (offer_needed, offer, answer, ice_candidate) block
// until the consumer takes them: dropping one would wedge a handshake.
// Membership and status events are delivered drop-oldest instead, so a
// consumer that stops reading them can never stall the dispatch loop and
// starve negotiation.
func (d *Dispatcher) Run() {
	defer close(d.Disconnected)

	for env := range d.client.Incoming() {
		switch env.Event {
		case signaling.EventConnected:
			var p signaling.ConnectedPayload
			if decode(env, &p) {
				publish(d.Connected, p.PeerID)
			}

		case signaling.EventRoomJoined:
			var p signaling.RoomJoinedPayload
			if decode(env, &p) {
				publish(d.RoomJoined, p)
			}

		case signaling.EventReadyToConnect:
			var p signaling.ReadyPayload
			if decode(env, &p) {
				publish(d.ReadyToConnect, p.RoomID)
			}

		case signaling.EventOfferNeeded:
			var p signaling.OfferNeededPayload
			if decode(env, &p) {
				d.OfferNeeded <- p.NewPeerID
			}

		case signaling.EventOffer:
			var p signaling.SignalPayload
			if decode(env, &p) {
				d.Offer <- p
			}

		case signaling.EventAnswer:
			var p signaling.SignalPayload
			if decode(env, &p) {
				d.Answer <- p
			}

		case signaling.EventICECandidate:
			var p signaling.SignalPayload
			if decode(env, &p) {
				d.Candidate <- p
			}

		case signaling.EventRoomUpdated:
			var p signaling.RoomUpdatedPayload
			if decode(env, &p) {
				publish(d.RoomUpdated, p)
			}

		case signaling.EventError:
			var p signaling.ErrorPayload
			if decode(env, &p) {
				publish(d.Errors, p.Error)
			}

		default:
			slog.Warn("unknown relay event", "event", env.Event)
		}
	}
}

// publish delivers a value without ever blocking the dispatch loop. When
// the channel is full the oldest buffered value is discarded; with the
// dispatcher as sole producer the loop terminates after at most one drop.
func publish[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func decode(env *signaling.Envelope, v any) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		slog.Warn("malformed relay payload", "event", env.Event, "err", err)
		return false
	}
	return true
}
