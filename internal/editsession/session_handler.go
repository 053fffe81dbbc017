package editsession

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/vmxmy/salary-system-v2-sub006/internal/lineitem"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/response"
)

type Handler struct {
	manager *Manager
	rdb     *redis.Client
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func NewHandlerWithRedis(manager *Manager, rdb *redis.Client) *Handler {
	return &Handler{manager: manager, rdb: rdb}
}

func (h *Handler) Open(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.GetString("company_id")

	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	session, err := h.manager.Open(ctx, companyID, req.EntryID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusCreated, session.Snapshot())
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, session.Snapshot())
}

func (h *Handler) AddItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req AddLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	section, ok := lineitem.ParseSection(req.Section)
	if !ok {
		response.Error(c, http.StatusBadRequest, apperror.CodeValidationError, "Unknown section: "+req.Section, nil)
		return
	}

	if err := session.AddItem(section, req.Code); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, session.Snapshot())
}

func (h *Handler) RemoveItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	section, ok := lineitem.ParseSection(c.Param("section"))
	if !ok {
		response.Error(c, http.StatusBadRequest, apperror.CodeValidationError, "Unknown section: "+c.Param("section"), nil)
		return
	}

	if err := session.RemoveItem(section, c.Param("code")); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, session.Snapshot())
}

func (h *Handler) SetAmount(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	section, ok := lineitem.ParseSection(c.Param("section"))
	if !ok {
		response.Error(c, http.StatusBadRequest, apperror.CodeValidationError, "Unknown section: "+c.Param("section"), nil)
		return
	}

	var req SetAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	if err := session.SetAmount(section, c.Param("code"), req.Amount); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, session.Snapshot())
}

func (h *Handler) ToggleOverride(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	section, ok := lineitem.ParseSection(c.Param("section"))
	if !ok {
		response.Error(c, http.StatusBadRequest, apperror.CodeValidationError, "Unknown section: "+c.Param("section"), nil)
		return
	}

	var req ToggleOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	if err := session.ToggleOverride(ctx, section, c.Param("code"), *req.Enabled, req.Reason); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, session.Snapshot())
}

func (h *Handler) Save(c *gin.Context) {
	lockKey, _ := c.Get("idempotency_lock_key")
	cacheKey, _ := c.Get("idempotency_cache_key")

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	snap, err := session.Save(c.Request.Context())
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(snap); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
			}
		}
	}

	response.Success(c, http.StatusOK, snap)
}

func (h *Handler) CloseSession(c *gin.Context) {
	companyID := c.GetString("company_id")

	if err := h.manager.Close(c.Param("sessionId"), companyID); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	companyID := c.GetString("company_id")
	session, err := h.manager.Get(c.Param("sessionId"), companyID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return nil, false
	}
	return session, true
}
