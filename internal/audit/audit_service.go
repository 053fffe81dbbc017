package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/events"
	"github.com/vmxmy/salary-system-v2-sub006/internal/messaging/kafka"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/contextutil"
)

//go:generate mockgen -source=audit_service.go -destination=mock/audit_service_mock.go -package=mock
type Service interface {
	RecordOverride(ctx context.Context, record OverrideAudit) error
	GetTrail(ctx context.Context, companyID, entryID string) ([]OverrideAuditResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("audit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		logger: l,
	}
}

// RecordOverride persists the audit row and queues the override event on
// the outbox in the same transaction, so the event is published if and only
// if the row exists.
func (s *service) RecordOverride(ctx context.Context, record OverrideAudit) error {
	rid := contextutil.GetRequestID(ctx)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("record override begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, &record); err != nil {
		s.logger.Error("create override audit failed", zap.String("request_id", rid), zap.Error(err))
		return mapRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.OverrideAdjustedEvent{
			EventType:      "override_adjusted",
			CompanyID:      record.CompanyID.String(),
			EntryID:        record.EntryID,
			ComponentCode:  record.ComponentCode,
			Section:        record.Section,
			Action:         record.Action,
			Amount:         record.Amount.String(),
			PreviousAmount: record.PreviousAmount.String(),
			Reason:         record.Reason,
			ActorID:        record.ActorID,
			OccurredAt:     time.Now().UTC(),
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		outboxRepo := s.outbox.WithTx(tx)
		if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
			ID:            uuid.New().String(),
			RequestID:     rid,
			AggregateType: "payroll_entry",
			AggregateID:   record.EntryID,
			EventType:     event.EventType,
			Topic:         events.OverrideAdjustedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("create override outbox event failed", zap.String("request_id", rid), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("override audit recorded",
		zap.String("request_id", rid),
		zap.String("entry_id", record.EntryID),
		zap.String("component_code", record.ComponentCode),
		zap.String("action", record.Action),
	)
	return nil
}

func (s *service) GetTrail(
	ctx context.Context,
	companyID, entryID string,
) ([]OverrideAuditResponse, error) {
	records, err := s.repo.FindByEntry(ctx, companyID, entryID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(records), nil
}
