package events

import "time"

const OverrideAdjustedTopic = "payroll.entry.override.v1"

type OverrideAdjustedEvent struct {
	EventType      string    `json:"event_type"`
	CompanyID      string    `json:"company_id"`
	EntryID        string    `json:"entry_id"`
	ComponentCode  string    `json:"component_code"`
	Section        string    `json:"section"`
	Action         string    `json:"action"`
	Amount         string    `json:"amount"`
	PreviousAmount string    `json:"previous_amount"`
	Reason         string    `json:"reason"`
	ActorID        string    `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
