package audit

import "time"

type OverrideAuditResponse struct {
	ID             string `json:"id"`
	EntryID        string `json:"entry_id"`
	ComponentCode  string `json:"component_code"`
	Section        string `json:"section"`
	Action         string `json:"action"`
	Amount         string `json:"amount"`
	PreviousAmount string `json:"previous_amount"`
	Reason         string `json:"reason,omitempty"`
	ActorID        string `json:"actor_id"`
	CreatedAt      string `json:"created_at"`
}

func mapToResponse(record OverrideAudit) OverrideAuditResponse {
	return OverrideAuditResponse{
		ID:             record.ID.String(),
		EntryID:        record.EntryID,
		ComponentCode:  record.ComponentCode,
		Section:        record.Section,
		Action:         record.Action,
		Amount:         record.Amount.String(),
		PreviousAmount: record.PreviousAmount.String(),
		Reason:         record.Reason,
		ActorID:        record.ActorID,
		CreatedAt:      record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapToListResponse(records []OverrideAudit) []OverrideAuditResponse {
	res := make([]OverrideAuditResponse, len(records))
	for i, record := range records {
		res[i] = mapToResponse(record)
	}
	return res
}
