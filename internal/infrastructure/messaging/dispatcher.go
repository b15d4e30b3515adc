package messaging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher registers named handlers on the bus, wrapping each with the
// middleware chain. Failed deliveries are kept in a bounded dead letter queue
// for the admin API.
type Dispatcher struct {
	bus         shared.EventSubscriber
	middlewares []Middleware
	deadLetterQ *DeadLetterQueue
	logger      *slog.Logger
	mu          sync.RWMutex
}

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// NewDispatcher creates a dispatcher with a dead letter queue of dlqSize entries.
func NewDispatcher(bus shared.EventSubscriber, dlqSize int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bus:         bus,
		deadLetterQ: NewDeadLetterQueue(dlqSize),
		logger:      logger.With("component", "dispatcher"),
	}
}

// Use adds middleware. Middleware added first runs outermost.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// Register subscribes a named handler to one event type.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if err := d.bus.Subscribe(eventType, d.wrap(name, handler)); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	d.logger.Debug("handler registered", "handler", name, "event_type", eventType)
	return nil
}

// RegisterAll subscribes a named handler to every event.
func (d *Dispatcher) RegisterAll(name string, handler shared.EventHandler) error {
	if err := d.bus.SubscribeAll(d.wrap(name, handler)); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	d.logger.Debug("global handler registered", "handler", name)
	return nil
}

func (d *Dispatcher) wrap(name string, handler shared.EventHandler) shared.EventHandler {
	d.mu.RLock()
	wrapped := handler
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		wrapped = d.middlewares[i](wrapped)
	}
	d.mu.RUnlock()

	return func(event shared.Event) error {
		err := wrapped(event)
		if err != nil {
			d.deadLetterQ.Add(DeadLetterEntry{
				Handler:   name,
				EventType: event.EventType(),
				Aggregate: event.AggregateID(),
				Error:     err.Error(),
				FailedAt:  time.Now(),
			})
		}
		return err
	}
}

// DeadLetterQueue returns the dead letter queue.
func (d *Dispatcher) DeadLetterQueue() *DeadLetterQueue {
	return d.deadLetterQ
}

// RecoveryMiddleware recovers from panics in handlers.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs handler execution.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			duration := time.Since(start)

			if err != nil {
				logger.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", duration,
					"error", err,
				)
			} else {
				logger.Debug("handler completed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", duration,
				)
			}
			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry describes one failed delivery.
type DeadLetterEntry struct {
	Handler   string           `json:"handler"`
	EventType shared.EventType `json:"event_type"`
	Aggregate string           `json:"aggregate_id"`
	Error     string           `json:"error"`
	FailedAt  time.Time        `json:"failed_at"`
}

// DeadLetterQueue keeps the most recent failed deliveries.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue. Non-positive sizes default to 100.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry, dropping the oldest when full.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]DeadLetterEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
