package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/event"
)

var (
	// ErrClosed is returned when publishing on a closed dispatcher
	ErrClosed = errors.New("dispatcher is closed")

	// ErrAlreadyClosed is returned by a second Close
	ErrAlreadyClosed = errors.New("dispatcher already closed")

	// ErrQueueFull is returned by Enqueue when the backlog is at capacity
	ErrQueueFull = errors.New("dispatcher queue is full")
)

const (
	defaultWorkers        = 4
	defaultQueueSize      = 256
	defaultHandlerTimeout = 30 * time.Second
)

// Dispatcher fans submission events out to subscribers
type Dispatcher interface {
	// Subscribe registers a named handler; names identify the handler in logs
	Subscribe(eventType event.Type, name string, handler Handler)

	// Dispatch runs the handlers of evt in registration order on the
	// caller's goroutine and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// Enqueue hands evt to the worker pool and returns immediately.
	// Handlers run detached from ctx cancellation.
	Enqueue(ctx context.Context, evt *event.Event) error

	// Subscribers lists handler names for an event type
	Subscribers(eventType event.Type) []string

	// Close stops accepting events and drains the queue
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type job struct {
	ctx context.Context
	evt *event.Event
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]subscriber
	closed   bool

	workers int
	timeout time.Duration
	queue   chan job
	wg      sync.WaitGroup
	logger  Logger
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithWorkers sets how many queued events are handled at once
func WithWorkers(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize bounds the number of events waiting for a worker
func WithQueueSize(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.queue = make(chan job, n)
		}
	}
}

// WithHandlerTimeout bounds a single queued handler run
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.timeout = timeout
	}
}

// NewDispatcher creates a dispatcher and starts its workers
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]subscriber),
		workers:  defaultWorkers,
		timeout:  defaultHandlerTimeout,
		queue:    make(chan job, defaultQueueSize),
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.work()
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("%s#%d", eventType, len(d.handlers[eventType]))
	}
	d.handlers[eventType] = append(d.handlers[eventType], subscriber{name: name, handle: handler})
	d.logger.Info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Subscribers(eventType event.Type) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers[eventType]))
	for _, s := range d.handlers[eventType] {
		names = append(names, s.name)
	}
	return names
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.mu.RLock()
	closed := d.closed
	subs := d.handlers[evt.Type]
	d.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	for _, s := range subs {
		if err := d.run(ctx, evt, s); err != nil {
			d.logger.Error("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", s.name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", s.name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) Enqueue(ctx context.Context, evt *event.Event) error {
	// Holding the read lock keeps Close from closing the queue mid-send
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), evt: evt}:
		return nil
	default:
		d.logger.Error("Event dropped, queue full",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"submission_id", evt.SubmissionID,
		)
		return ErrQueueFull
	}
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrAlreadyClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.logger.Info("Closing dispatcher, draining queue", "pending", len(d.queue))
	d.wg.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}

func (d *eventDispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.mu.RLock()
		subs := d.handlers[j.evt.Type]
		d.mu.RUnlock()

		// every subscriber runs; one failing mail must not hide the others
		for _, s := range subs {
			ctx, cancel := d.handlerContext(j.ctx)
			if err := d.run(ctx, j.evt, s); err != nil {
				d.logger.Error("Queued handler error",
					"event_type", j.evt.Type,
					"event_id", j.evt.ID,
					"submission_id", j.evt.SubmissionID,
					"handler_name", s.name,
					"error", err,
				)
			}
			cancel()
		}
	}
}

func (d *eventDispatcher) handlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d.timeout)
}

// run calls a handler, turning a panic into an error
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, s subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handle(ctx, evt)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
