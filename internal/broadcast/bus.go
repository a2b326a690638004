package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/pkg/logger"
)

// Observer is one connected subscriber. Events arrive on the channel
// returned by Events until the observer is disconnected.
type Observer struct {
	id     string
	events chan json.RawMessage
	done   chan struct{}
	once   sync.Once
}

// ID returns the observer's unique identifier.
func (o *Observer) ID() string {
	return o.id
}

// Events returns the observer's delivery channel.
func (o *Observer) Events() <-chan json.RawMessage {
	return o.events
}

// Done is closed when the observer has been removed from the bus.
func (o *Observer) Done() <-chan struct{} {
	return o.done
}

func (o *Observer) close() {
	o.once.Do(func() {
		close(o.done)
	})
}

// Option configures Bus.
type Option func(*Bus)

// WithObserverBuffer sets each observer's delivery buffer size.
func WithObserverBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithHeartbeatInterval sets the idle keep-alive cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.heartbeat = d
		}
	}
}

// Bus fans events out to all connected observers. Delivery is best effort
// and at most once: a slow observer loses its oldest buffered event rather
// than stalling the rest, and nothing is replayed to late subscribers.
type Bus struct {
	mu        sync.Mutex
	observers map[string]*Observer
	buffer    int
	heartbeat time.Duration
	metrics   repository.Metrics
	log       *logger.Logger
}

// NewBus creates an empty bus.
func NewBus(metrics repository.Metrics, log *logger.Logger, opts ...Option) *Bus {
	b := &Bus{
		observers: make(map[string]*Observer),
		buffer:    16,
		heartbeat: 15 * time.Second,
		metrics:   metrics,
		log:       log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect registers a new observer and returns its handle.
func (b *Bus) Connect() *Observer {
	obs := &Observer{
		id:     uuid.NewString(),
		events: make(chan json.RawMessage, b.buffer),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.observers[obs.id] = obs
	n := len(b.observers)
	b.mu.Unlock()

	b.metrics.SetObservers(n)
	b.log.Debug("observer connected", logger.String("observer", obs.id), logger.Int("total", n))
	return obs
}

// Disconnect removes an observer. Idempotent; safe after the observer was
// already dropped by a failed delivery.
func (b *Bus) Disconnect(obs *Observer) {
	if obs == nil {
		return
	}

	b.mu.Lock()
	_, present := b.observers[obs.id]
	delete(b.observers, obs.id)
	n := len(b.observers)
	b.mu.Unlock()

	obs.close()

	if present {
		b.metrics.SetObservers(n)
		b.log.Debug("observer disconnected", logger.String("observer", obs.id), logger.Int("total", n))
	}
}

// Publish delivers an event to every currently connected observer. The
// registry is snapshotted before iterating so a disconnect during the
// broadcast cannot corrupt the fan-out. A full observer drops its oldest
// pending event to make room; an observer that still cannot accept is
// removed instead of retried.
func (b *Bus) Publish(event json.RawMessage) {
	b.mu.Lock()
	snapshot := make([]*Observer, 0, len(b.observers))
	for _, obs := range b.observers {
		snapshot = append(snapshot, obs)
	}
	b.mu.Unlock()

	kind := eventKind(event)
	for _, obs := range snapshot {
		if b.deliver(obs, event) {
			b.metrics.RecordDelivery(kind)
		} else {
			b.metrics.RecordDrop(kind)
			b.Disconnect(obs)
		}
	}
}

// ObserverCount reports the number of connected observers.
func (b *Bus) ObserverCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}

// Run emits a heartbeat to all observers on the configured interval until
// the context is cancelled. One ticker serves the whole bus; departed
// observers stop receiving the moment they leave the registry.
func (b *Bus) Run(ctx context.Context) {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Publish(models.MarshalHeartbeat())
		}
	}
}

func (b *Bus) deliver(obs *Observer, event json.RawMessage) bool {
	select {
	case <-obs.done:
		return false
	default:
	}

	select {
	case obs.events <- event:
		return true
	default:
	}

	// Buffer full: drop the oldest pending event and try once more.
	select {
	case <-obs.events:
	default:
	}

	select {
	case obs.events <- event:
		return true
	default:
		return false
	}
}

func eventKind(event json.RawMessage) string {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(event, &tag); err == nil && tag.Type != "" {
		return tag.Type
	}
	return "custom"
}
