package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aube-labs-dev/photo-bridge/internal/config"
	"github.com/aube-labs-dev/photo-bridge/internal/peer"
	"github.com/aube-labs-dev/photo-bridge/internal/rtc"
	"github.com/aube-labs-dev/photo-bridge/internal/signalclient"
	"github.com/aube-labs-dev/photo-bridge/internal/signaling"
	"github.com/aube-labs-dev/photo-bridge/internal/ui"
)

const handshakeTimeout = 15 * time.Second

// relaySignaler sends handshake messages to remote peers through the
// signaling relay.
type relaySignaler struct {
	client *signalclient.Client
}

func (s relaySignaler) SendOffer(targetID string, sdp json.RawMessage) {
	s.client.Send(signaling.EventOffer, signaling.SignalPayload{TargetID: targetID, SDP: sdp})
}

func (s relaySignaler) SendAnswer(targetID string, sdp json.RawMessage) {
	s.client.Send(signaling.EventAnswer, signaling.SignalPayload{TargetID: targetID, SDP: sdp})
}

func (s relaySignaler) SendCandidate(targetID string, candidate json.RawMessage) {
	s.client.Send(signaling.EventICECandidate, signaling.SignalPayload{TargetID: targetID, Candidate: candidate})
}

// Connection bundles the relay client, the event dispatcher, and the peer
// orchestrator behind one lifecycle.
type Connection struct {
	PeerID string

	client       *signalclient.Client
	dispatcher   *signalclient.Dispatcher
	Orchestrator *peer.Orchestrator
}

// Connect dials the relay and waits for the peer id it assigns.
func Connect(ctx context.Context, cfg *config.Config) (*Connection, error) {
	client := signalclient.NewClient(cfg.ServerURL)
	if err := client.Connect(); err != nil {
		return nil, err
	}

	dispatcher := signalclient.NewDispatcher(client)
	go dispatcher.Run()

	var peerID string
	select {
	case peerID = <-dispatcher.Connected:
	case <-dispatcher.Disconnected:
		return nil, fmt.Errorf("relay closed the connection during handshake")
	case <-time.After(handshakeTimeout):
		client.Close()
		return nil, fmt.Errorf("timed out waiting for relay handshake")
	case <-ctx.Done():
		client.Close()
		return nil, ctx.Err()
	}

	orch := peer.NewOrchestrator(rtc.NewFactory(cfg), relaySignaler{client: client})

	return &Connection{
		PeerID:       peerID,
		client:       client,
		dispatcher:   dispatcher,
		Orchestrator: orch,
	}, nil
}

// JoinRoom asks the relay to place this peer in the room and waits for the
// confirmation.
func (c *Connection) JoinRoom(ctx context.Context, roomID string) (signaling.RoomJoinedPayload, error) {
	if err := c.client.Send(signaling.EventCreateOrJoinRoom, signaling.JoinPayload{RoomID: roomID}); err != nil {
		return signaling.RoomJoinedPayload{}, err
	}

	select {
	case joined := <-c.dispatcher.RoomJoined:
		return joined, nil
	case msg := <-c.dispatcher.Errors:
		return signaling.RoomJoinedPayload{}, fmt.Errorf("relay rejected join: %s", msg)
	case <-c.dispatcher.Disconnected:
		return signaling.RoomJoinedPayload{}, fmt.Errorf("relay connection lost")
	case <-time.After(handshakeTimeout):
		return signaling.RoomJoinedPayload{}, fmt.Errorf("timed out joining room %s", roomID)
	case <-ctx.Done():
		return signaling.RoomJoinedPayload{}, ctx.Err()
	}
}

// Run routes relay events into the orchestrator until the context ends or
// the relay connection drops. All negotiation events are handled on this
// one goroutine, so they reach each session in relay order.
func (c *Connection) Run(ctx context.Context) error {
	for {
		select {
		case remoteID := <-c.dispatcher.OfferNeeded:
			if err := c.Orchestrator.Initiate(remoteID); err != nil {
				slog.Warn("could not start handshake", "remote", remoteID, "err", err)
			}

		case p := <-c.dispatcher.Offer:
			if err := c.Orchestrator.HandleOffer(p.SenderID, p.SDP); err != nil {
				slog.Warn("offer handling failed", "remote", p.SenderID, "err", err)
			}

		case p := <-c.dispatcher.Answer:
			if err := c.Orchestrator.HandleAnswer(p.SenderID, p.SDP); err != nil {
				slog.Warn("answer handling failed", "remote", p.SenderID, "err", err)
			}

		case p := <-c.dispatcher.Candidate:
			if err := c.Orchestrator.HandleCandidate(p.SenderID, p.Candidate); err != nil {
				slog.Warn("candidate handling failed", "remote", p.SenderID, "err", err)
			}

		case joined := <-c.dispatcher.RoomJoined:
			ui.PrintInfo("room %s now has %d member(s)", joined.RoomID, joined.TotalMembers)

		case roomID := <-c.dispatcher.ReadyToConnect:
			slog.Debug("awaiting offers", "room", roomID)

		case update := <-c.dispatcher.RoomUpdated:
			ui.PrintInfo("room %s now has %d member(s)", update.RoomID, len(update.Members))

		case msg := <-c.dispatcher.Errors:
			ui.PrintWarning("relay error: %s", msg)

		case <-c.dispatcher.Disconnected:
			c.Orchestrator.Close()
			return fmt.Errorf("relay connection lost")

		case <-ctx.Done():
			c.Orchestrator.Close()
			return nil
		}
	}
}

// Close shuts down every peer session and the relay connection.
func (c *Connection) Close() {
	c.Orchestrator.Close()
	c.client.Close()
}
