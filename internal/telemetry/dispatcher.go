package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region config

// DispatcherConfig tunes the hand-off between the step loop and the sinks.
type DispatcherConfig struct {
	QueueSize   int           // records buffered before Observe starts dropping
	SendTimeout time.Duration // per-sink, per-record
	TripAfter   uint32        // consecutive failures that open a sink's breaker
	OpenTimeout time.Duration // how long an open breaker skips its sink
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:   1024,
		SendTimeout: time.Second,
		TripAfter:   5,
		OpenTimeout: 10 * time.Second,
	}
}

// #endregion config

// #region stats

// Stats counts delivery outcomes. A record delivered to three sinks counts
// three times in Sent.
type Stats struct {
	Enqueued uint64
	Dropped  uint64 // queue full at Observe time
	Sent     uint64
	Failed   uint64 // sink returned an error
	Skipped  uint64 // breaker open, sink not attempted
}

// #endregion stats

// #region dispatcher

type guardedSink struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker
}

// Dispatcher decouples the step loop from sink I/O. Observe never blocks:
// it enqueues or drops. A single goroutine drains the queue into every sink,
// each behind its own circuit breaker so a dead endpoint stops costing a
// timeout per record.
type Dispatcher struct {
	config DispatcherConfig
	sinks  []guardedSink
	queue  chan engine.Record
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	enqueued, dropped, sent, failed, skipped atomic.Uint64
}

// NewDispatcher starts the drain goroutine. Close must be called to flush
// and release the sinks.
func NewDispatcher(config DispatcherConfig, sinks ...Sink) *Dispatcher {
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	if config.TripAfter == 0 {
		config.TripAfter = 1
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = time.Second
	}
	d := &Dispatcher{
		config: config,
		queue:  make(chan engine.Record, config.QueueSize),
		done:   make(chan struct{}),
	}
	for i, s := range sinks {
		d.sinks = append(d.sinks, guardedSink{
			sink: s,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        fmt.Sprintf("sink-%d", i),
				MaxRequests: 1,
				Timeout:     config.OpenTimeout,
				ReadyToTrip: func(c gobreaker.Counts) bool {
					return c.ConsecutiveFailures >= config.TripAfter
				},
			}),
		})
	}
	go d.drain()
	return d
}

// Observe implements host.Observer.
func (d *Dispatcher) Observe(rec engine.Record) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}
	select {
	case d.queue <- rec:
		d.enqueued.Add(1)
	default:
		d.dropped.Add(1)
	}
}

// Stats returns a point-in-time copy of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued: d.enqueued.Load(),
		Dropped:  d.dropped.Load(),
		Sent:     d.sent.Load(),
		Failed:   d.failed.Load(),
		Skipped:  d.skipped.Load(),
	}
}

// Close stops accepting records, delivers what is queued, then closes every
// sink. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	var first error
	for _, g := range d.sinks {
		if err := g.sink.Close(); err != nil && first == nil {
			first = fmt.Errorf("close sink %s: %w", g.breaker.Name(), err)
		}
	}
	return first
}

func (d *Dispatcher) drain() {
	defer close(d.done)
	for rec := range d.queue {
		for _, g := range d.sinks {
			d.deliver(g, rec)
		}
	}
}

func (d *Dispatcher) deliver(g guardedSink, rec engine.Record) {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
		defer cancel()
		return nil, g.sink.Send(ctx, rec)
	})
	switch {
	case err == nil:
		d.sent.Add(1)
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		d.skipped.Add(1)
	default:
		d.failed.Add(1)
	}
}

// #endregion dispatcher
