package app

import (
	"database/sql"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vmxmy/salary-system-v2-sub006/internal/audit"
	"github.com/vmxmy/salary-system-v2-sub006/internal/backend"
	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
	"github.com/vmxmy/salary-system-v2-sub006/internal/editsession"
	"github.com/vmxmy/salary-system-v2-sub006/internal/messaging/kafka"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) (func(), error) {
	// --- Backend client ---
	backendClient := backend.NewHTTPClient(
		os.Getenv("PAYROLL_CORE_URL"),
		os.Getenv("PAYROLL_CORE_TOKEN"),
		zap.L().Named("backend"),
	)

	// --- Repositories ---
	auditRepo := audit.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	catalogCache := catalog.NewCache(backendClient, rdb, zap.L().Named("catalog"))
	auditService := audit.NewService(db, auditRepo, outboxRepo)
	sessionManager := editsession.NewManager(
		backendClient,
		catalogCache,
		editsession.ConfigFromEnv(),
		auditService,
		zap.L().Named("editsession"),
	)

	// --- Handlers ---
	auditHandler := audit.NewHandler(auditService)
	sessionHandler := editsession.NewHandlerWithRedis(sessionManager, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		editsession.RegisterRoutes(api, sessionHandler, rdb)
		audit.RegisterRoutes(api, auditHandler)
	}

	return sessionManager.Shutdown, nil
}
