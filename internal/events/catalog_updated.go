package events

import "time"

const ComponentCatalogUpdatedTopic = "payroll.component.catalog.v1"

type ComponentCatalogUpdatedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}
