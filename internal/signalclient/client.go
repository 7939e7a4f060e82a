// Package signalclient maintains the websocket connection from a client to
// the signaling relay and fans relay events out to typed channels.
package signalclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aube-labs-dev/photo-bridge/internal/signaling"
)

// ErrConnectionClosed is returned by Send once the relay connection is
// shut down or has dropped.
var ErrConnectionClosed = errors.New("signaling connection closed")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the websocket connection to the signaling relay.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *signaling.Envelope
	outgoing  chan *signaling.Envelope

	// done is closed on Close and when either pump exits, so a Send
	// caller is never left blocking on a dead connection.
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a signaling client for the given relay URL.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *signaling.Envelope, 32),
		outgoing:  make(chan *signaling.Envelope, 32),
		done:      make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the pumps.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.shutdown()
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var env signaling.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		c.incoming <- &env
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.shutdown()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues an envelope for the relay. It fails instead of blocking
// once the connection is down; candidate trickling keeps firing from
// connectivity callbacks after a relay drop, and those goroutines must
// not pile up on a queue nobody drains.
func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.outgoing <- &signaling.Envelope{Event: event, Data: data}:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	}
}

// Incoming returns the channel of envelopes read from the relay. It is
// closed when the connection drops.
func (c *Client) Incoming() <-chan *signaling.Envelope {
	return c.incoming
}

// Close shuts the connection down.
func (c *Client) Close() {
	c.shutdown()
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}
