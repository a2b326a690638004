package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"PriceRadar/internal/broadcast"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/pkg/logger"
)

// OpportunityIngest consumes opportunity events published by external
// collector processes and forwards them verbatim to the broadcast bus,
// mirroring the HTTP publish endpoint for collectors that ship through the
// broker instead.
type OpportunityIngest struct {
	topic   string
	bus     *broadcast.Bus
	metrics repository.Metrics
	log     *logger.Logger
}

// NewOpportunityIngest creates the ingest handler for the given topic.
func NewOpportunityIngest(topic string, bus *broadcast.Bus, metrics repository.Metrics, log *logger.Logger) *OpportunityIngest {
	return &OpportunityIngest{topic: topic, bus: bus, metrics: metrics, log: log}
}

// Topic returns the consumed topic name.
func (h *OpportunityIngest) Topic() string {
	return h.topic
}

// Handle validates the payload is JSON and fans it out. Malformed payloads
// are an error so the consumer's retry and logging apply.
func (h *OpportunityIngest) Handle(_ context.Context, payload []byte) error {
	if !json.Valid(payload) {
		h.metrics.RecordError("ingest_malformed")
		return fmt.Errorf("opportunity ingest: payload is not valid JSON")
	}

	h.bus.Publish(json.RawMessage(payload))
	h.log.Debug("opportunity forwarded to bus", logger.Int("bytes", len(payload)))
	return nil
}
