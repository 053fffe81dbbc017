package audit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vmxmy/salary-system-v2-sub006/internal/audit"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type fakeAuditService struct {
	recordOverrideFn func(ctx context.Context, record audit.OverrideAudit) error
	getTrailFn       func(ctx context.Context, companyID, entryID string) ([]audit.OverrideAuditResponse, error)
}

func (f *fakeAuditService) RecordOverride(ctx context.Context, record audit.OverrideAudit) error {
	if f.recordOverrideFn != nil {
		return f.recordOverrideFn(ctx, record)
	}
	return nil
}

func (f *fakeAuditService) GetTrail(ctx context.Context, companyID, entryID string) ([]audit.OverrideAuditResponse, error) {
	return f.getTrailFn(ctx, companyID, entryID)
}

func TestAuditHandler_GetTrail(t *testing.T) {
	companyID := uuid.New().String()
	svc := &fakeAuditService{
		getTrailFn: func(ctx context.Context, cid, entryID string) ([]audit.OverrideAuditResponse, error) {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, "entry-1", entryID)
			return []audit.OverrideAuditResponse{
				{EntryID: entryID, ComponentCode: "PENSION_PERSONAL", Action: audit.ActionOverrideEnabled, Amount: "350"},
			}, nil
		},
	}

	h := audit.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/payroll-entries/entry-1/override-audits", nil)
	c.Params = []gin.Param{{Key: "id", Value: "entry-1"}}
	c.Set("company_id", companyID)

	h.GetTrail(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var env apiEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Ok)

	var trail []audit.OverrideAuditResponse
	assert.NoError(t, json.Unmarshal(env.Data, &trail))
	assert.Len(t, trail, 1)
	assert.Equal(t, "PENSION_PERSONAL", trail[0].ComponentCode)
}

func TestAuditHandler_GetTrail_NotFound(t *testing.T) {
	svc := &fakeAuditService{
		getTrailFn: func(ctx context.Context, companyID, entryID string) ([]audit.OverrideAuditResponse, error) {
			return nil, apperror.ErrNotFound
		},
	}

	h := audit.NewHandler(svc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/payroll-entries/missing/override-audits", nil)
	c.Params = []gin.Param{{Key: "id", Value: "missing"}}
	c.Set("company_id", uuid.New().String())

	h.GetTrail(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var env apiEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Ok)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
