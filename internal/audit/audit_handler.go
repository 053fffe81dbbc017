package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetTrail(c *gin.Context) {
	ctx := c.Request.Context()
	entryID := c.Param("id")
	companyID := c.GetString("company_id")

	resp, err := h.service.GetTrail(ctx, companyID, entryID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, resp)
}
