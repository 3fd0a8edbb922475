package types

import (
	"encoding/json"
	"time"

	"github.com/mgiraldodev/templaria-backend/pkg/enums"
)

// Envelope is the canonical shape of an analytics event pulled off Pub/Sub.
type Envelope struct {
	EventID       string              `json:"event_id"`
	EventType     enums.EventType     `json:"event_type"`
	AggregateType enums.AggregateType `json:"aggregate_type"`
	AggregateID   string              `json:"aggregate_id"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Payload       json.RawMessage     `json:"payload"`
}
