package usecase

import (
	"context"
	"testing"

	"PriceRadar/internal/broadcast"
)

func TestOpportunityIngestForwardsToBus(t *testing.T) {
	bus := broadcast.NewBus(noopMetrics{}, testLogger(t))
	obs := bus.Connect()
	defer bus.Disconnect(obs)

	h := NewOpportunityIngest("opportunities", bus, noopMetrics{}, testLogger(t))
	if h.Topic() != "opportunities" {
		t.Fatalf("unexpected topic %q", h.Topic())
	}

	payload := []byte(`{"type":"opportunity","product":{"name":"Samsung Galaxy S23"}}`)
	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-obs.Events():
		if string(got) != string(payload) {
			t.Fatalf("payload not forwarded verbatim: %s", got)
		}
	default:
		t.Fatalf("bus observer received nothing")
	}
}

func TestOpportunityIngestRejectsMalformed(t *testing.T) {
	bus := broadcast.NewBus(noopMetrics{}, testLogger(t))
	h := NewOpportunityIngest("opportunities", bus, noopMetrics{}, testLogger(t))

	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
