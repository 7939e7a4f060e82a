// Package rtc adapts pion/webrtc to the negotiation orchestrator's Link
// and Channel interfaces. Everything below the session description level
// (ICE, DTLS, SCTP) stays pion's business.
package rtc

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/aube-labs-dev/photo-bridge/internal/config"
	"github.com/aube-labs-dev/photo-bridge/internal/peer"
)

// channelLabel names the data channel used for file transfer.
const channelLabel = "file_transfer"

// Factory creates pion-backed links, one peer connection per remote peer.
type Factory struct {
	iceServers []webrtc.ICEServer
}

// NewFactory builds a link factory from the configured ICE servers.
func NewFactory(cfg *config.Config) *Factory {
	iceServers := []webrtc.ICEServer{{URLs: cfg.GetSTUNServers()}}

	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	return &Factory{iceServers: iceServers}
}

// NewLink creates the peer connection for one remote peer and wires its
// events into the orchestrator's callbacks.
func (f *Factory) NewLink(remoteID string, events peer.LinkEvents) (peer.Link, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: f.iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	l := &link{
		remoteID: remoteID,
		pc:       pc,
		events:   events,
	}
	l.setupHandlers()
	return l, nil
}
