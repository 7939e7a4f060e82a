package config

import (
	"fmt"
	"os"
)

// Default configuration values.
const (
	DefaultServerURL = "ws://localhost:3000/ws"
	DefaultSTUN      = "stun:stun.l.google.com:19302"
)

// Config holds client configuration.
type Config struct {
	// ServerURL is the signaling relay websocket endpoint.
	ServerURL string

	// ICE servers for connectivity establishment.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Options carries CLI flag overrides into Load.
type Options struct {
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	serverURL := firstOf(opts.ServerURL, os.Getenv("PHOTO_BRIDGE_SERVER"), DefaultServerURL)
	stunServer := firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN)
	turnServer := firstOf(opts.TURNServer, os.Getenv("TURN_SERVER"))
	turnUser := firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME"))
	turnPass := firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD"))

	if turnServer != "" && turnUser == "" {
		return nil, fmt.Errorf("TURN server %s configured without credentials", turnServer)
	}

	return &Config{
		ServerURL:  serverURL,
		STUNServer: stunServer,
		TURNServer: turnServer,
		TURNUser:   turnUser,
		TURNPass:   turnPass,
	}, nil
}

// GetSTUNServers returns STUN server URLs as strings.
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password.
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
