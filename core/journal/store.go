package journal

import (
	"context"
	"time"

	"github.com/kilianp07/livetrack/core/model"
)

// Record captures one connection state transition.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
}

// FromEvent converts a lifecycle event into a Record.
func FromEvent(ev model.ConnectionEvent) Record {
	r := Record{
		Timestamp: ev.Time,
		From:      ev.From.String(),
		To:        ev.To.String(),
		Attempt:   ev.Attempt,
	}
	if ev.Err != nil {
		r.Error = ev.Err.Error()
	}
	return r
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Start time.Time
	End   time.Time
	To    string
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return q.To == "" || r.To == q.To
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
