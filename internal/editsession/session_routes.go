package editsession

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vmxmy/salary-system-v2-sub006/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb ...*redis.Client) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	sessions := r.Group("/edit-sessions")
	sessions.Use(middleware.AuthMiddleware())
	{
		sessions.POST("",
			middleware.RateLimitByUser(5, 10),
			handler.Open,
		)
		sessions.GET("/:sessionId", handler.GetSnapshot)
		sessions.POST("/:sessionId/items", handler.AddItem)
		sessions.DELETE("/:sessionId/items/:section/:code", handler.RemoveItem)
		sessions.PUT("/:sessionId/items/:section/:code/amount", handler.SetAmount)
		sessions.PUT("/:sessionId/items/:section/:code/override", handler.ToggleOverride)
		if redisClient != nil {
			sessions.POST("/:sessionId/save",
				middleware.Idempotency(redisClient),
				handler.Save,
			)
		} else {
			sessions.POST("/:sessionId/save", handler.Save)
		}
		sessions.DELETE("/:sessionId", handler.CloseSession)
	}
}
