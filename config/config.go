package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/livetrack/core/journal"
	"github.com/kilianp07/livetrack/core/metrics"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/auth"
	"github.com/kilianp07/livetrack/infra/mqtt"
	"github.com/kilianp07/livetrack/infra/orders"
	"github.com/kilianp07/livetrack/infra/stomp"
	"github.com/kilianp07/livetrack/simulator"
)

// Supported broker transports.
const (
	TransportMQTT  = "mqtt"
	TransportSTOMP = "stomp"
)

// Default topic prefixes per transport.
const (
	DefaultMQTTPrefix  = "delivery/locations/"
	DefaultSTOMPPrefix = "/topic/locations/"
)

type Config struct {
	Transport string           `json:"transport"`
	MQTT      mqtt.Config      `json:"mqtt"`
	STOMP     stomp.Config     `json:"stomp"`
	Stream    stream.Config    `json:"stream"`
	Auth      auth.Conf        `json:"auth"`
	Orders    orders.Config    `json:"orders"`
	Metrics   metrics.Config   `json:"metrics"`
	Journal   journal.Config   `json:"journal"`
	Logging   LoggingConfig    `json:"logging"`
	Sentry    SentryConfig     `json:"sentry"`
	Simulator simulator.Config `json:"simulator"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	if c.Transport == "" {
		c.Transport = TransportMQTT
	}
	if c.Stream.TopicPrefix == "" {
		c.Stream.TopicPrefix = DefaultMQTTPrefix
		if c.Transport == TransportSTOMP {
			c.Stream.TopicPrefix = DefaultSTOMPPrefix
		}
	}
	c.Stream.SetDefaults()
	switch c.Transport {
	case TransportMQTT:
		c.MQTT.SetDefaults()
	case TransportSTOMP:
		c.STOMP.SetDefaults()
	}
	c.Auth.SetDefaults()
	c.Journal.SetDefaults()
	c.Logging.SetDefaults()
	c.Simulator.SetDefaults()
	if c.Orders.BaseURL != "" {
		c.Orders.SetDefaults()
	}
}

// Validate checks the selected transport and every section.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportMQTT:
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	case TransportSTOMP:
		if err := c.STOMP.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if err := c.Stream.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	if err := c.Simulator.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
