package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
	"github.com/vmxmy/salary-system-v2-sub006/internal/events"
)

// ConsumeCatalogUpdates invalidates and re-warms the component catalog
// cache whenever the payroll core announces a catalog change. Open editing
// sessions pick up the fresh catalog on their next filter pass.
func ConsumeCatalogUpdates(
	ctx context.Context,
	reader *kafkago.Reader,
	cache *catalog.Cache,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.catalog_updates")
	log.Info("catalog updates consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("catalog updates consumer stopped")
				return
			}
			log.Error("fetch catalog update message failed", zap.Error(err))
			continue
		}

		var event events.ComponentCatalogUpdatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode catalog_updated event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		cache.Invalidate(ctx)
		if err := cache.Load(ctx); err != nil {
			// A failed re-warm is not fatal; the next session open retries.
			log.Warn("catalog re-warm after invalidation failed", zap.Error(err))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit catalog update message failed", zap.Error(err))
			continue
		}

		log.Info("component catalog refreshed from event",
			zap.String("event_type", event.EventType),
			zap.Time("occurred_at", event.OccurredAt),
		)
	}
}
