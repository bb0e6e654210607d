package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthUnavailable is returned when the credentials provider has no token.
	ErrAuthUnavailable = errors.New("auth unavailable")
	// ErrTransport marks socket level failures.
	ErrTransport = errors.New("transport error")
	// ErrBroker marks broker level protocol errors such as a rejected subscribe.
	ErrBroker = errors.New("broker error")
	// ErrRetriesExhausted is the terminal error after the retry budget is spent.
	ErrRetriesExhausted = errors.New("reconnect retries exhausted")
	// ErrHeartbeatTimeout is reported by transports when a heartbeat is missed.
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
	// ErrNotConnected is returned by connection operations issued while offline.
	ErrNotConnected = errors.New("not connected")
	// ErrDisconnected is returned to pending Connect calls cancelled by Disconnect.
	ErrDisconnected = errors.New("disconnected")
	// ErrClosed is returned once the Manager has been closed.
	ErrClosed = errors.New("manager closed")
	// ErrEmptyOrderID is returned by Track for an empty id.
	ErrEmptyOrderID = errors.New("empty order id")
)

// TransportError wraps a socket level failure.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return fmt.Sprintf("%v: %v", ErrTransport, e.Err) }

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// BrokerError wraps a broker level failure for a topic.
type BrokerError struct {
	Topic string
	Err   error
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("%v: topic %s: %v", ErrBroker, e.Topic, e.Err)
}

func (e *BrokerError) Unwrap() []error { return []error{ErrBroker, e.Err} }
