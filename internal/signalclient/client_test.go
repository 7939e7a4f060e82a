package signalclient

import (
	"errors"
	"testing"
	"time"

	"github.com/aube-labs-dev/photo-bridge/internal/signaling"
)

func TestSendAfterCloseReturnsError(t *testing.T) {
	c := NewClient("ws://localhost:3000/ws")
	c.Close()

	err := c.Send(signaling.EventOffer, signaling.SignalPayload{TargetID: "x"})
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("err = %v, want ErrConnectionClosed", err)
	}
}

// Candidate trickling keeps calling Send from connectivity callbacks after
// a relay drop; a full outgoing queue must not pin those goroutines.
func TestSendBlockedOnFullQueueUnblocksOnClose(t *testing.T) {
	c := NewClient("ws://localhost:3000/ws")

	result := make(chan error, 1)
	go func() {
		var err error
		for i := 0; i <= cap(c.outgoing) && err == nil; i++ {
			err = c.Send(signaling.EventICECandidate, signaling.SignalPayload{TargetID: "x"})
		}
		result <- err
	}()

	// Wait for the sender to fill the queue and block on the extra send.
	deadline := time.Now().Add(2 * time.Second)
	for len(c.outgoing) < cap(c.outgoing) {
		if time.Now().After(deadline) {
			t.Fatal("outgoing queue never filled")
		}
		time.Sleep(time.Millisecond)
	}

	c.Close()

	select {
	case err := <-result:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Fatalf("err = %v, want ErrConnectionClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send stayed blocked after close")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewClient("ws://localhost:3000/ws")
	c.Close()
	c.Close()
}
