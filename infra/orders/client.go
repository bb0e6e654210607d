// Package orders fetches the full live state of an order from the delivery
// HTTP API. It is used to resync after a reconnect, outside the stream.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/stream"
)

// ErrNotFound is returned when the API has no live state for the order.
var ErrNotFound = errors.New("orders: order not found")

// Config defines the delivery API endpoint.
type Config struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
}

// Client calls GET {base_url}/deliveries/track/{orderId}.
type Client struct {
	base  string
	http  *http.Client
	creds stream.CredentialsProvider
}

// NewClient returns a Client authenticated with creds.
func NewClient(cfg Config, creds stream.CredentialsProvider) (*Client, error) {
	cfg.SetDefaults()
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("orders: invalid base_url: %w", err)
	}
	return &Client{
		base:  strings.TrimSuffix(cfg.BaseURL, "/"),
		http:  &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		creds: creds,
	}, nil
}

// LiveLocation returns the last known location of orderID.
func (c *Client) LiveLocation(ctx context.Context, orderID string) (model.LocationUpdate, error) {
	u := c.base + "/deliveries/track/" + url.PathEscape(orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.LocationUpdate{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		tok := c.creds.Token()
		if tok == "" {
			return model.LocationUpdate{}, stream.ErrAuthUnavailable
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.LocationUpdate{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.LocationUpdate{}, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.LocationUpdate{}, fmt.Errorf("orders: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out model.LocationUpdate
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.LocationUpdate{}, fmt.Errorf("orders: decode: %w", err)
	}
	if out.VehicleID == "" {
		out.VehicleID = orderID
	}
	return out, nil
}
