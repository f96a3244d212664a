package enums

import "fmt"

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventStockRestocked OutboxEventType = "stock.restocked"
	EventStockReserved  OutboxEventType = "stock.reserved"
	EventStockReleased  OutboxEventType = "stock.released"
	EventStockSold      OutboxEventType = "stock.sold"
	EventInventoryLow   OutboxEventType = "inventory.low_stock"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockRestocked,
	EventStockReserved,
	EventStockReleased,
	EventStockSold,
	EventInventoryLow,
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event refers to.
type OutboxAggregateType string

const (
	AggregateInventoryRecord OutboxAggregateType = "inventory_record"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (t OutboxAggregateType) IsValid() bool {
	return t == AggregateInventoryRecord
}
