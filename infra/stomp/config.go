package stomp

import (
	"fmt"
	"net/url"
	"time"
)

// Config defines the STOMP over WebSocket endpoint.
type Config struct {
	URL string `json:"url"`
	// Host is sent in the CONNECT host header; defaults to the URL host.
	Host string `json:"host"`
	// HeartbeatMS is both the outgoing and the expected incoming heartbeat
	// interval offered at CONNECT. Zero keeps the default, negative disables.
	HeartbeatMS        int `json:"heartbeat_ms"`
	HandshakeTimeoutMS int `json:"handshake_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HeartbeatMS == 0 {
		c.HeartbeatMS = 10000
	}
	if c.HandshakeTimeoutMS <= 0 {
		c.HandshakeTimeoutMS = 10000
	}
	if c.Host == "" {
		if u, err := url.Parse(c.URL); err == nil {
			c.Host = u.Hostname()
		}
	}
}

// Validate checks the endpoint URL.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("stomp: invalid url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("stomp: url scheme must be ws or wss, got %q", u.Scheme)
	}
	return nil
}

func (c Config) heartbeat() time.Duration {
	if c.HeartbeatMS < 0 {
		return 0
	}
	return time.Duration(c.HeartbeatMS) * time.Millisecond
}
