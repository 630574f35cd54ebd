// Package notify decouples side effects from the answer path. Events
// are published fire-and-forget into a bounded queue drained by worker
// goroutines; a full queue drops the event rather than blocking.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType classifies dispatcher events.
type EventType string

const (
	EventAnswerDelivered EventType = "answer_delivered"
	EventSafetyRejected  EventType = "safety_rejected"
)

// Event is one side-effect notification.
type Event struct {
	Type      EventType
	SessionID string
	Question  string
	Cached    bool
	Timestamp time.Time
}

// Sink consumes events off the queue. Implementations may send email,
// push metrics, or anything else slow; they run outside the answer path.
type Sink interface {
	Handle(ctx context.Context, event Event) error
}

// Dispatcher is a bounded-queue worker pool.
type Dispatcher struct {
	queue   chan Event
	sink    Sink
	logger  *zap.Logger
	wg      sync.WaitGroup
	closing chan struct{}
	once    sync.Once
}

// NewDispatcher starts workers draining a queue of the given size.
func NewDispatcher(sink Sink, queueSize, workers int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 2
	}
	d := &Dispatcher{
		queue:   make(chan Event, queueSize),
		sink:    sink,
		logger:  logger,
		closing: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues an event without blocking. When the queue is full
// the event is dropped and logged; the answer path must never wait on
// side effects.
func (d *Dispatcher) Publish(event Event) {
	select {
	case <-d.closing:
		return
	default:
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue full, dropping event",
			zap.String("type", string(event.Type)))
	}
}

// Close stops accepting events, drains the queue and waits for workers.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.closing)
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.sink.Handle(ctx, event); err != nil {
			d.logger.Warn("event sink failed",
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}
		cancel()
	}
}

// LogSink is the default Sink: it records the event and nothing more.
type LogSink struct {
	Logger *zap.Logger
}

// Handle logs the event.
func (s *LogSink) Handle(_ context.Context, event Event) error {
	s.Logger.Info("event dispatched",
		zap.String("type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.Bool("cached", event.Cached))
	return nil
}
