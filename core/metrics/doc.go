// Package metrics defines the sinks that observe the live location stream.
// Sinks such as PromSink and InfluxSink record connection transitions,
// accepted and rejected frames, subscription counts and feed drops. They can
// be combined with NewMultiSink; NewSink returns a MultiSink automatically
// when several sinks are configured.
package metrics
