package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v2-sub006/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	audits := r.Group("/payroll-entries")
	audits.Use(middleware.AuthMiddleware())
	{
		audits.GET("/:id/override-audits",
			middleware.RateLimitByUser(2, 5),
			handler.GetTrail,
		)
	}
}
