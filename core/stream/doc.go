// Package stream maintains a single authenticated broker connection and
// multiplexes per-order location subscriptions over it.
//
// The Manager owns the connection and runs every state transition on one
// goroutine. The Multiplexer records tracked order ids in a Registry and
// replays them after each (re)connect. Decoded frames are fanned out by the
// Dispatcher to any number of consumers, which filter by order id.
package stream
