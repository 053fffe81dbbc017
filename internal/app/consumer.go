package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/backend"
	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
	"github.com/vmxmy/salary-system-v2-sub006/internal/events"
	"github.com/vmxmy/salary-system-v2-sub006/internal/messaging/kafka/consumer"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/connection"
)

// RunConsumer keeps the shared component-catalog cache in step with
// catalog change events published by the payroll core.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	backendClient := backend.NewHTTPClient(
		os.Getenv("PAYROLL_CORE_URL"),
		os.Getenv("PAYROLL_CORE_TOKEN"),
		logger.Named("backend"),
	)
	catalogCache := catalog.NewCache(backendClient, redisClient, logger.Named("catalog"))

	reader := connection.NewKafkaReader(
		kafkaBroker,
		events.ComponentCatalogUpdatedTopic,
		"salary-system-catalog",
	)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeCatalogUpdates(ctx, reader, catalogCache, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
