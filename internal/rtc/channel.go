package rtc

import "github.com/pion/webrtc/v4"

// channel wraps a pion data channel as the orchestrator-facing transport.
type channel struct {
	dc *webrtc.DataChannel
}

func (c *channel) Send(data []byte) error {
	return c.dc.Send(data)
}

func (c *channel) SendText(data []byte) error {
	return c.dc.SendText(string(data))
}

func (c *channel) OnMessage(fn func(data []byte, isText bool)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(msg.Data, msg.IsString)
	})
}

func (c *channel) Close() error {
	return c.dc.Close()
}
