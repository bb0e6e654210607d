package stream

import "context"

// Handler receives callbacks from an established connection.
type Handler struct {
	// OnFrame is called for each inbound data frame in arrival order.
	OnFrame func(topic string, payload []byte)
	// OnLost is called at most once when the connection drops. It is not
	// called after Conn.Close.
	OnLost func(err error)
}

// Transport opens authenticated broker connections.
type Transport interface {
	// Dial performs the handshake with the bearer token and returns once the
	// broker accepted the connection. Heartbeats are the transport's concern;
	// a missed heartbeat is reported through Handler.OnLost.
	Dial(ctx context.Context, token string, h Handler) (Conn, error)
}

// Conn is one established broker connection.
type Conn interface {
	// Subscribe returns after the broker acknowledged the subscription.
	Subscribe(ctx context.Context, topic string) error
	Unsubscribe(ctx context.Context, topic string) error
	// Close tears the connection down gracefully. It is idempotent.
	Close() error
}

// CredentialsProvider supplies the bearer token used at connect time.
type CredentialsProvider interface {
	// Token returns the current token, or "" when none is available.
	Token() string
	// RefreshIfNeeded returns a valid token, fetching a new one when the
	// current one has expired.
	RefreshIfNeeded(ctx context.Context) (string, error)
}
