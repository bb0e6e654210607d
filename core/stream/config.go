package stream

import (
	"fmt"
	"time"
)

// Config holds the streaming policy.
type Config struct {
	TopicPrefix string `json:"topic_prefix"`
	// MaxRetries bounds consecutive reconnect attempts. Nil selects the
	// default; zero gives up after the first failure.
	MaxRetries       *int          `json:"max_retries"`
	BaseDelay        time.Duration `json:"-"`
	BaseDelayMS      int           `json:"base_delay_ms"`
	DialTimeout      time.Duration `json:"-"`
	DialTimeoutMS    int           `json:"dial_timeout_ms"`
	SubscribeTimeout time.Duration `json:"-"`
	// SubscribeTimeoutMS bounds the wait for a subscribe acknowledgment.
	SubscribeTimeoutMS int `json:"subscribe_timeout_ms"`
	// FeedBuffer is the queue length of each SubscribeAll consumer.
	FeedBuffer int `json:"feed_buffer"`
}

// SetDefaults applies sane defaults and resolves millisecond fields.
func (c *Config) SetDefaults() {
	if c.MaxRetries == nil {
		n := 3
		c.MaxRetries = &n
	}
	if c.BaseDelayMS <= 0 {
		c.BaseDelayMS = 5000
	}
	if c.DialTimeoutMS <= 0 {
		c.DialTimeoutMS = 10000
	}
	if c.SubscribeTimeoutMS <= 0 {
		c.SubscribeTimeoutMS = 10000
	}
	if c.FeedBuffer <= 0 {
		c.FeedBuffer = 64
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Duration(c.BaseDelayMS) * time.Millisecond
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = time.Duration(c.DialTimeoutMS) * time.Millisecond
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = time.Duration(c.SubscribeTimeoutMS) * time.Millisecond
	}
}

// Validate checks the policy values.
func (c Config) Validate() error {
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("topic_prefix is required")
	}
	return nil
}

func (c Config) retries() int {
	if c.MaxRetries == nil {
		return 3
	}
	return *c.MaxRetries
}
