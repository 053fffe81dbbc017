package audit

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/vmxmy/salary-system-v2-sub006/internal/tenant"
)

//go:generate mockgen -source=audit_repo.go -destination=mock/audit_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, record *OverrideAudit) error
	FindByEntry(ctx context.Context, companyID string, entryID string) ([]OverrideAudit, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

// Create inserts the record on the WithTx transaction when one is bound, so
// the audit row and its outbox event commit or roll back together.
func (r *repository) Create(ctx context.Context, record *OverrideAudit) error {
	if r.tx == nil {
		return r.db.WithContext(ctx).Create(record).Error
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO override_audits (
            id, company_id, entry_id, component_code, section, action,
            amount, previous_amount, reason, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err := r.tx.ExecContext(
		ctx, query,
		record.ID, record.CompanyID, record.EntryID, record.ComponentCode,
		record.Section, record.Action, record.Amount, record.PreviousAmount,
		record.Reason, record.ActorID, record.CreatedAt,
	)
	return err
}

func (r *repository) FindByEntry(ctx context.Context, companyID string, entryID string) ([]OverrideAudit, error) {
	var records []OverrideAudit
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("entry_id = ?", entryID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
