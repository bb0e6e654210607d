package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/livetrack/config"
	"github.com/kilianp07/livetrack/core/journal"
	coremetrics "github.com/kilianp07/livetrack/core/metrics"
	coremon "github.com/kilianp07/livetrack/core/monitoring"
	"github.com/kilianp07/livetrack/core/stream"
	"github.com/kilianp07/livetrack/infra/auth"
	"github.com/kilianp07/livetrack/infra/logger"
	"github.com/kilianp07/livetrack/infra/metrics"
	"github.com/kilianp07/livetrack/infra/monitoring"
	"github.com/kilianp07/livetrack/infra/mqtt"
	"github.com/kilianp07/livetrack/infra/orders"
	"github.com/kilianp07/livetrack/infra/stomp"
)

// Option overrides a component built from the configuration.
type Option func(*Service)

// WithTransport replaces the transport selected by cfg.Transport.
func WithTransport(t stream.Transport) Option {
	return func(s *Service) { s.transport = t }
}

// WithCredentials replaces the provider built from cfg.Auth.
func WithCredentials(c stream.CredentialsProvider) Option {
	return func(s *Service) { s.creds = c }
}

// WithSink replaces the sinks built from cfg.Metrics.
func WithSink(sink coremetrics.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// Service wires the connection manager, the multiplexer and the update feed.
type Service struct {
	Manager *stream.Manager
	Mux     *stream.Multiplexer
	Feed    *stream.Dispatcher

	cfg       *config.Config
	transport stream.Transport
	creds     stream.CredentialsProvider
	sink      coremetrics.Sink
	orders    *orders.Client
	journal   journal.Store
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	s := &Service{cfg: cfg, log: logger.New("service")}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		if s.transport, err = newTransport(cfg); err != nil {
			return nil, err
		}
	}
	if s.creds == nil {
		if s.creds, err = auth.New(cfg.Auth); err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
	}
	if s.sink == nil {
		if s.sink, err = coremetrics.NewSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if cfg.Orders.BaseURL != "" {
		if s.orders, err = orders.NewClient(cfg.Orders, s.creds); err != nil {
			return nil, err
		}
	}
	if s.journal, err = journal.New(cfg.Journal); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	s.Feed = stream.NewDispatcher(cfg.Stream.FeedBuffer, s.recordDrop)
	s.Manager, err = stream.NewManager(s.transport, cfg.Stream,
		stream.WithLogger(logger.New("stream")),
		stream.WithSink(s.sink),
		stream.WithPublisher(s.Feed),
	)
	if err != nil {
		return nil, err
	}
	s.Mux = stream.NewMultiplexer(s.Manager)
	if s.orders != nil {
		s.Manager.OnConnected(s.resync)
	}
	return s, nil
}

func newTransport(cfg *config.Config) (stream.Transport, error) {
	switch cfg.Transport {
	case config.TransportSTOMP:
		t, err := stomp.NewTransport(cfg.STOMP, logger.New("stomp"))
		if err != nil {
			return nil, fmt.Errorf("stomp transport: %w", err)
		}
		return t, nil
	default:
		t, err := mqtt.NewTransport(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt transport: %w", err)
		}
		return t, nil
	}
}

// Run tracks orderIDs, connects and blocks until ctx is done or the manager
// gives up.
func (s *Service) Run(ctx context.Context, orderIDs ...string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.StartEventCollector(ctx, s.Manager.Events(), s.sink)
	if s.journal != nil {
		journal.RecordEvents(ctx, s.Manager.Events(), s.journal, logger.New("journal"))
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	fatal := make(chan error, 1)
	s.Manager.OnError(func(err error) {
		select {
		case fatal <- err:
		default:
		}
	})

	for _, id := range orderIDs {
		if err := s.Mux.Track(id); err != nil {
			return err
		}
	}
	if err := s.Manager.Connect(ctx, s.creds); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("connect: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return err
	}
}

// resync fetches the current state of every tracked order after a
// (re)connect, since updates published while offline are not replayed.
func (s *Service) resync() {
	entries := s.Mux.Snapshot()
	if len(entries) == 0 {
		return
	}
	go func() {
		defer coremon.Recover()
		for _, e := range entries {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Orders.TimeoutMS)*time.Millisecond)
			u, err := s.orders.LiveLocation(ctx, e.OrderID)
			cancel()
			if err != nil {
				s.log.Warnf("resync %s: %v", e.OrderID, err)
				continue
			}
			s.Feed.Publish(u)
		}
	}()
}

func (s *Service) recordDrop() {
	r, ok := s.sink.(coremetrics.FeedDropRecorder)
	if !ok {
		return
	}
	if err := r.RecordFeedDrop(); err != nil {
		s.log.Errorf("metrics error: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.Manager.Close()
	s.Feed.Close()
	if s.journal != nil {
		err = errors.Join(err, s.journal.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return err
}
