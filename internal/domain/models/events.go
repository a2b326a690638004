package models

import "encoding/json"

// Event type tags carried in the "type" field of broadcast frames.
const (
	EventHeartbeat   = "heartbeat"
	EventOpportunity = "opportunity"
)

// HeartbeatEvent keeps idle subscriber connections alive.
type HeartbeatEvent struct {
	Type string `json:"type"`
}

// OpportunityEvent announces a newly confirmed opportunity.
type OpportunityEvent struct {
	Type    string          `json:"type"`
	Product EnrichedListing `json:"product"`
}

// RefreshSignal tells subscribers to re-fetch via the read path.
type RefreshSignal struct {
	RefreshProducts bool `json:"refreshProducts"`
}

// MarshalHeartbeat returns the serialized heartbeat frame. The payload is
// tiny and static; errors cannot occur.
func MarshalHeartbeat() json.RawMessage {
	b, _ := json.Marshal(HeartbeatEvent{Type: EventHeartbeat})
	return b
}
