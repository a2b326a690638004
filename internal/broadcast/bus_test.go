package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"PriceRadar/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordScan(string, int, float64) {}
func (noopMetrics) RecordStoreSkip(string, string)  {}
func (noopMetrics) RecordDelivery(string)           {}
func (noopMetrics) RecordDrop(string)               {}
func (noopMetrics) SetObservers(int)                {}
func (noopMetrics) RecordError(string)              {}

func testBus(t *testing.T, opts ...Option) *Bus {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewBus(noopMetrics{}, log, opts...)
}

func TestPublishFansOut(t *testing.T) {
	bus := testBus(t)

	observers := make([]*Observer, 3)
	for i := range observers {
		observers[i] = bus.Connect()
	}

	event := json.RawMessage(`{"type":"opportunity"}`)
	bus.Publish(event)

	for i, obs := range observers {
		select {
		case got := <-obs.Events():
			if string(got) != string(event) {
				t.Fatalf("observer %d got %s, want %s", i, got, event)
			}
		default:
			t.Fatalf("observer %d received nothing", i)
		}
	}
}

func TestPublishSkipsClosedObserver(t *testing.T) {
	bus := testBus(t)

	healthy := bus.Connect()
	closed := bus.Connect()
	bus.Disconnect(closed)

	bus.Publish(json.RawMessage(`{"type":"opportunity"}`))

	select {
	case <-healthy.Events():
	default:
		t.Fatalf("healthy observer should still receive after peer disconnect")
	}

	select {
	case <-closed.Events():
		t.Fatalf("closed observer should not receive")
	default:
	}

	if n := bus.ObserverCount(); n != 1 {
		t.Fatalf("expected 1 observer, got %d", n)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	bus := testBus(t)

	obs := bus.Connect()
	bus.Disconnect(obs)
	bus.Disconnect(obs)
	bus.Disconnect(nil)

	if n := bus.ObserverCount(); n != 0 {
		t.Fatalf("expected 0 observers, got %d", n)
	}

	select {
	case <-obs.Done():
	default:
		t.Fatalf("done channel should be closed after disconnect")
	}
}

func TestSlowObserverDropsOldest(t *testing.T) {
	bus := testBus(t, WithObserverBuffer(2))
	obs := bus.Connect()

	bus.Publish(json.RawMessage(`{"seq":1}`))
	bus.Publish(json.RawMessage(`{"seq":2}`))
	bus.Publish(json.RawMessage(`{"seq":3}`))

	first := <-obs.Events()
	if string(first) != `{"seq":2}` {
		t.Fatalf("expected oldest event dropped, got %s first", first)
	}
	second := <-obs.Events()
	if string(second) != `{"seq":3}` {
		t.Fatalf("expected seq 3 second, got %s", second)
	}
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	bus := testBus(t)

	bus.Publish(json.RawMessage(`{"type":"opportunity"}`))
	obs := bus.Connect()

	select {
	case got := <-obs.Events():
		t.Fatalf("late subscriber should not receive replayed event, got %s", got)
	default:
	}
}

func TestHeartbeatCadence(t *testing.T) {
	bus := testBus(t, WithHeartbeatInterval(20*time.Millisecond))
	obs := bus.Connect()

	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx)

	deadline := time.After(130 * time.Millisecond)
	beats := 0
loop:
	for {
		select {
		case got := <-obs.Events():
			var tag struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(got, &tag); err != nil || tag.Type != "heartbeat" {
				t.Fatalf("unexpected frame %s", got)
			}
			beats++
		case <-deadline:
			break loop
		}
	}
	cancel()

	if beats < 3 {
		t.Fatalf("expected at least 3 heartbeats in 130ms at 20ms cadence, got %d", beats)
	}

	bus.Disconnect(obs)
	bus.Publish(json.RawMessage(`{"type":"heartbeat"}`))
	select {
	case <-obs.Events():
		t.Fatalf("disconnected observer should receive no heartbeats")
	default:
	}
}
