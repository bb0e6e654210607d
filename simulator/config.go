package simulator

import (
	"fmt"
	"time"
)

// Default source used when an order has no source coordinates.
const (
	DefaultSourceLat = 17.3850
	DefaultSourceLon = 78.4867
)

// OrderConfig describes one simulated delivery.
type OrderConfig struct {
	ID     string   `json:"id"`
	SrcLat *float64 `json:"src_lat"`
	SrcLon *float64 `json:"src_lon"`
	DesLat float64  `json:"des_lat"`
	DesLon float64  `json:"des_lon"`
}

// Config holds parameters for the simulator.
type Config struct {
	IntervalMS int `json:"interval_ms"`
	// SpeedDegrees is the distance covered per tick.
	SpeedDegrees float64 `json:"speed_degrees"`
	// JitterDegrees is the standard deviation of the lateral noise.
	JitterDegrees float64       `json:"jitter_degrees"`
	Orders        []OrderConfig `json:"orders"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.IntervalMS <= 0 {
		c.IntervalMS = 2000
	}
	if c.SpeedDegrees <= 0 {
		c.SpeedDegrees = 0.001
	}
}

// Validate checks the order list.
func (c Config) Validate() error {
	if c.JitterDegrees < 0 {
		return fmt.Errorf("simulator: jitter_degrees must be >= 0")
	}
	seen := make(map[string]bool, len(c.Orders))
	for _, o := range c.Orders {
		if o.ID == "" {
			return fmt.Errorf("simulator: order id is required")
		}
		if seen[o.ID] {
			return fmt.Errorf("simulator: duplicate order %s", o.ID)
		}
		seen[o.ID] = true
	}
	return nil
}

// Interval returns the tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
