// Package queue defines the activity events exchanged over RabbitMQ, the
// publisher used by the services and the consumer that appends them to
// the activity log.
package queue

import "time"

// Event types.
const (
	FarmRecordCreated  = "farm_record.created"
	FarmRecordUpdated  = "farm_record.updated"
	FarmRecordDeleted  = "farm_record.deleted"
	AdvisoryResolved   = "advisory.resolved"
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
)

// Event is published after a successful mutation.  Exactly one of the
// payload pointers is set, matching Type.
type Event struct {
	Type       string             `json:"type"`
	ActorID    uint64             `json:"actor_id"`
	OwnerID    uint64             `json:"owner_id"`
	EntityID   uint64             `json:"entity_id"`
	OccurredAt string             `json:"occurred_at"`
	Record     *FarmRecordPayload `json:"record,omitempty"`
	Advisory   *AdvisoryPayload   `json:"advisory,omitempty"`
	Order      *OrderPayload      `json:"order,omitempty"`
}

// FarmRecordPayload carries the figures worth logging for a record.
type FarmRecordPayload struct {
	CropName     string  `json:"crop_name"`
	Season       string  `json:"season"`
	Revenue      float64 `json:"revenue"`
	NetProfit    float64 `json:"net_profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// AdvisoryPayload describes a resolved advisory request.
type AdvisoryPayload struct {
	CropName string `json:"crop_name"`
	Status   string `json:"status"`
}

// OrderPayload describes an order placement or status change.  From is
// empty for a new order.
type OrderPayload struct {
	Reference string `json:"reference"`
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	Total     string `json:"total"`
}

// Now formats the current time the way events carry it.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
