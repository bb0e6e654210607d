package simulator

import (
	"context"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/livetrack/core/model"
	"github.com/kilianp07/livetrack/infra/logger"
)

// Publisher emits location frames.
type Publisher interface {
	PublishLocation(ctx context.Context, u model.LocationUpdate) error
}

// Simulator moves the configured orders toward their destinations and
// publishes one frame per order per tick. Delivered orders emit a final
// Delivered frame and then stop.
type Simulator struct {
	cfg    Config
	pub    Publisher
	orders []*Order
	jitter distuv.Normal
	now    func() time.Time
	log    logger.Logger
}

// New builds a Simulator.
func New(cfg Config, pub Publisher, log logger.Logger) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Simulator{
		cfg:    cfg,
		pub:    pub,
		jitter: distuv.Normal{Mu: 0, Sigma: cfg.JitterDegrees},
		now:    time.Now,
		log:    log,
	}
	for _, oc := range cfg.Orders {
		s.orders = append(s.orders, NewOrder(oc))
	}
	return s, nil
}

// Run ticks until every order is delivered or ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.Interval())
	defer t.Stop()
	for {
		if s.Tick(ctx) == 0 {
			s.log.Infof("all %d orders delivered", len(s.orders))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Tick publishes the current frame of every undelivered order, then advances
// them. It returns how many orders are still moving.
func (s *Simulator) Tick(ctx context.Context) int {
	moving := 0
	ts := uint64(s.now().UnixMilli())
	for _, o := range s.orders {
		if o.Status == model.StatusDelivered {
			continue
		}
		if err := s.pub.PublishLocation(ctx, o.Update(ts)); err != nil {
			s.log.Errorf("publish %s: %v", o.ID, err)
		}
		o.Step(s.cfg.SpeedDegrees, s.jitter)
		if o.Status == model.StatusDelivered {
			if err := s.pub.PublishLocation(ctx, o.Update(ts)); err != nil {
				s.log.Errorf("publish %s: %v", o.ID, err)
			}
			s.log.Infof("order %s delivered", o.ID)
			continue
		}
		moving++
	}
	return moving
}

// Orders returns the simulated orders.
func (s *Simulator) Orders() []*Order { return s.orders }
