package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/livetrack/core/metrics"
	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/monitoring"
	"github.com/kilianp07/livetrack/infra/logger"
)

// StartEventCollector records every connection event received on events with
// sink. It stops when the context is canceled or the channel is closed.
func StartEventCollector(ctx context.Context, events <-chan model.ConnectionEvent, sink coremetrics.Sink) {
	if events == nil || sink == nil {
		return
	}
	log := logger.New("metrics-collector")
	go func() {
		defer monitoring.Recover()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := sink.RecordConnectionEvent(ev); err != nil {
					log.Errorf("record connection event: %v", err)
				}
			}
		}
	}()
}
