package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ActionOverrideEnabled  = "OVERRIDE_ENABLED"
	ActionOverrideReverted = "OVERRIDE_REVERTED"
)

// OverrideAudit is one recorded manual-override transition on a payroll
// entry line item. Amounts are stored as numeric to keep them exact.
type OverrideAudit struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_override_audit_company"`
	EntryID        string          `gorm:"type:varchar(64);not null;index:idx_override_audit_entry"`
	ComponentCode  string          `gorm:"type:varchar(64);not null;index:idx_override_audit_entry"`
	Section        string          `gorm:"type:varchar(16);not null"`
	Action         string          `gorm:"type:varchar(32);not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	PreviousAmount decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Reason         string          `gorm:"type:varchar(255)"`
	ActorID        string          `gorm:"type:varchar(64);not null"`
	CreatedAt      time.Time
}

func (OverrideAudit) TableName() string {
	return "override_audits"
}
