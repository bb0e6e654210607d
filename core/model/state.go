package model

import "time"

// ConnectionState is the lifecycle state of the broker connection.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Reconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// SubscriptionState is the state of one tracked order subscription.
type SubscriptionState int

const (
	Pending SubscriptionState = iota
	Active
)

func (s SubscriptionState) String() string {
	if s == Active {
		return "active"
	}
	return "pending"
}

// SubscriptionEntry is a registry entry for one tracked order id.
type SubscriptionEntry struct {
	OrderID string            `json:"order_id"`
	State   SubscriptionState `json:"state"`
}

// ConnectionEvent describes a single connection state transition.
type ConnectionEvent struct {
	From    ConnectionState
	To      ConnectionState
	Attempt int
	Err     error
	Time    time.Time
}
