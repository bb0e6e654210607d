package journal

import (
	"context"

	"github.com/kilianp07/livetrack/core/logger"
	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/core/monitoring"
)

// RecordEvents appends every event received on events until ctx is done or the
// channel is closed. Append failures are logged and do not stop the loop.
func RecordEvents(ctx context.Context, events <-chan model.ConnectionEvent, store Store, log logger.Logger) {
	if log == nil {
		log = logger.NopLogger{}
	}
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
				if err := store.Append(ctx, FromEvent(ev)); err != nil {
					log.Errorf("journal append: %v", err)
				}
			}
		}
	}()
}
