package enums

import "fmt"

// OutboxStatus tracks the publish lifecycle of an outbox event row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// AggregateType names the entity an outbox event belongs to.
type AggregateType string

const (
	AggregateOrder  AggregateType = "order"
	AggregateCart   AggregateType = "cart"
	AggregateReview AggregateType = "review"
)

// EventType names the domain events emitted through the outbox.
type EventType string

const (
	EventOrderCreated  EventType = "order.created"
	EventOrderPaid     EventType = "order.paid"
	EventOrderFailed   EventType = "order.payment_failed"
	EventCouponApplied EventType = "coupon.applied"
	EventReviewCreated EventType = "review.created"
)

// OutboxDLQErrorReason explains why a row was routed to the dead letter table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

// ParseEventType validates a wire value against the known event types.
func ParseEventType(value string) (EventType, error) {
	switch EventType(value) {
	case EventOrderCreated, EventOrderPaid, EventOrderFailed, EventCouponApplied, EventReviewCreated:
		return EventType(value), nil
	default:
		return "", fmt.Errorf("unknown event type %q", value)
	}
}

// ParseAggregateType validates a wire value against the known aggregates.
func ParseAggregateType(value string) (AggregateType, error) {
	switch AggregateType(value) {
	case AggregateOrder, AggregateCart, AggregateReview:
		return AggregateType(value), nil
	default:
		return "", fmt.Errorf("unknown aggregate type %q", value)
	}
}
