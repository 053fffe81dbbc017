package editsession_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/audit"
	"github.com/vmxmy/salary-system-v2-sub006/internal/backend"
	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
	"github.com/vmxmy/salary-system-v2-sub006/internal/editsession"
	"github.com/vmxmy/salary-system-v2-sub006/internal/lineitem"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/contextutil"
)

type fakeBackendClient struct {
	fetchEntryFn       func(ctx context.Context, entryID string) (*backend.Entry, error)
	fetchComponentsFn  func(ctx context.Context) ([]backend.RawComponent, error)
	submitAdjustmentFn func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error)
	saveEntryFn        func(ctx context.Context, entryID string, req backend.SaveEntryRequest) (*backend.Entry, error)
}

func (f *fakeBackendClient) FetchEntry(ctx context.Context, entryID string) (*backend.Entry, error) {
	if f.fetchEntryFn != nil {
		return f.fetchEntryFn(ctx, entryID)
	}
	return &backend.Entry{ID: entryID}, nil
}

func (f *fakeBackendClient) FetchComponents(ctx context.Context) ([]backend.RawComponent, error) {
	if f.fetchComponentsFn != nil {
		return f.fetchComponentsFn(ctx)
	}
	return nil, nil
}

func (f *fakeBackendClient) SubmitAdjustment(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
	if f.submitAdjustmentFn != nil {
		return f.submitAdjustmentFn(ctx, entryID, req)
	}
	return &backend.AdjustmentResult{
		IsManual:       true,
		ManualAt:       time.Now().UTC().Format(time.RFC3339),
		AdjustedAmount: req.Amount,
	}, nil
}

func (f *fakeBackendClient) SaveEntry(ctx context.Context, entryID string, req backend.SaveEntryRequest) (*backend.Entry, error) {
	if f.saveEntryFn != nil {
		return f.saveEntryFn(ctx, entryID, req)
	}
	return nil, nil
}

type fakeAuditRecorder struct {
	mu      sync.Mutex
	records []audit.OverrideAudit
	done    chan struct{}
}

func newFakeAuditRecorder() *fakeAuditRecorder {
	return &fakeAuditRecorder{done: make(chan struct{}, 8)}
}

func (f *fakeAuditRecorder) RecordOverride(ctx context.Context, record audit.OverrideAudit) error {
	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeAuditRecorder) wait(t *testing.T) audit.OverrideAudit {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit record")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

func sessionCatalog() *catalog.Cache {
	return catalog.NewStatic([]catalog.ComponentDefinition{
		{Code: "BASIC", DisplayName: "Basic Salary", Category: catalog.CategoryEarning},
		{Code: "BONUS", DisplayName: "Bonus", Category: catalog.CategoryEarning},
		{Code: "BASE_SALARY", DisplayName: "Base Salary", Category: catalog.CategoryEarning},
		{Code: "PERFORMANCE_BONUS", DisplayName: "Performance Bonus", Category: catalog.CategoryEarning},
		{Code: "HOUSING_FUND_PERSONAL", DisplayName: "Housing Fund (Personal)", Category: catalog.CategoryStatutory},
		{Code: "PENSION_PERSONAL", DisplayName: "Pension (Personal)", Category: catalog.CategoryStatutory},
	})
}

func testEntry() *backend.Entry {
	return &backend.Entry{
		ID:                "entry-1",
		EmployeeID:        "emp-1",
		Period:            "2026-03",
		EarningsDetails:   json.RawMessage(`{"BASE_SALARY": 6000}`),
		DeductionsDetails: json.RawMessage(`{"HOUSING_FUND_PERSONAL": 420, "GHOST_CODE": 10}`),
	}
}

func newTestManager(client backend.Client, cfg editsession.Config, recorder editsession.AuditRecorder) *editsession.Manager {
	return editsession.NewManager(client, sessionCatalog(), cfg, recorder, zap.NewNop())
}

func actorContext() context.Context {
	return contextutil.WithActorID(context.Background(), "user-7")
}

func TestOpenSessionFiltersAndTotals(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)

	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	snap := session.Snapshot()
	assert.True(t, snap.Persisted)
	assert.True(t, snap.CatalogReady)
	assert.Len(t, snap.Earnings, 1)
	assert.Equal(t, "Base Salary", snap.Earnings[0].Description)
	assert.Len(t, snap.Deductions, 1)

	// The unknown code is excluded from editing and from the totals.
	assert.Len(t, snap.InvalidItems, 1)
	assert.Equal(t, "GHOST_CODE", snap.InvalidItems[0].Code)
	assert.Equal(t, "6000", snap.Totals.GrossPay.String())
	assert.Equal(t, "420", snap.Totals.TotalDeductions.String())
	assert.Equal(t, "5580", snap.Totals.NetPay.String())
}

func TestOverrideRoundTripRestoresAutomaticAmount(t *testing.T) {
	var submitted []backend.AdjustmentRequest
	var mu sync.Mutex
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			mu.Lock()
			submitted = append(submitted, req)
			mu.Unlock()
			return &backend.AdjustmentResult{
				IsManual:       true,
				ManualAt:       "2026-03-15T09:30:00Z",
				ManualBy:       "user-7",
				ManualReason:   req.Reason,
				OriginalAmount: decimal.NewFromInt(420),
				AdjustedAmount: req.Amount,
			}, nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	ctx := actorContext()
	err = session.ToggleOverride(ctx, lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "court order")
	assert.NoError(t, err)

	snap := session.Snapshot()
	item := snap.Deductions[0]
	assert.True(t, item.IsManualOverride)
	assert.Equal(t, "user-7", item.OverriddenBy)
	assert.Equal(t, "court order", item.OverrideReason)
	if assert.NotNil(t, item.AutoComputedAmount) {
		assert.Equal(t, "420", item.AutoComputedAmount.String())
	}
	if assert.NotNil(t, item.OverriddenAt) {
		assert.Equal(t, 2026, item.OverriddenAt.Year())
	}

	err = session.SetAmount(lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", decimal.NewFromInt(350))
	assert.NoError(t, err)

	snap = session.Snapshot()
	assert.Equal(t, "350", snap.Deductions[0].Amount.String())
	assert.Equal(t, "350", snap.Totals.TotalDeductions.String())
	assert.Equal(t, "5650", snap.Totals.NetPay.String())

	// Revert: the system-computed amount and totals come back exactly.
	err = session.ToggleOverride(ctx, lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", false, "")
	assert.NoError(t, err)

	snap = session.Snapshot()
	item = snap.Deductions[0]
	assert.False(t, item.IsManualOverride)
	assert.Nil(t, item.AutoComputedAmount)
	assert.Nil(t, item.OverriddenAt)
	assert.Empty(t, item.OverriddenBy)
	assert.Equal(t, "420", item.Amount.String())
	assert.Equal(t, "5580", snap.Totals.NetPay.String())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, submitted, 2)
	assert.Equal(t, "court order", submitted[0].Reason)
	assert.Equal(t, "reverted to automatic", submitted[1].Reason)
	assert.Equal(t, "420", submitted[1].Amount.String())
}

func TestRevertPreOverriddenItemRestoresComputedAmount(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return &backend.Entry{
				ID:              "entry-2",
				EarningsDetails: json.RawMessage(`{"BASIC": 5000, "BONUS": 1000}`),
				DeductionsDetails: json.RawMessage(`{
					"PENSION_PERSONAL": {
						"amount": 400,
						"is_manual": true,
						"manual_at": "2026-03-01T08:00:00Z",
						"manual_by": "hr-admin",
						"auto_calculated": 350
					}
				}`),
			}, nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-2")
	assert.NoError(t, err)

	snap := session.Snapshot()
	assert.Equal(t, "6000", snap.Totals.GrossPay.String())
	assert.Equal(t, "400", snap.Totals.TotalDeductions.String())
	assert.Equal(t, "5600", snap.Totals.NetPay.String())
	assert.True(t, snap.Deductions[0].IsManualOverride)

	err = session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "PENSION_PERSONAL", false, "")
	assert.NoError(t, err)

	snap = session.Snapshot()
	item := snap.Deductions[0]
	assert.False(t, item.IsManualOverride)
	assert.Equal(t, "350", item.Amount.String())
	assert.Nil(t, item.AutoComputedAmount)
	assert.Empty(t, item.OverriddenBy)
	assert.Equal(t, "5650", snap.Totals.NetPay.String())
}

func TestToggleOverrideWhileInFlightIsSilentNoop(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			close(started)
			<-release
			return &backend.AdjustmentResult{IsManual: true, AdjustedAmount: req.Amount}, nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	ctx := actorContext()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = session.ToggleOverride(ctx, lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "")
	}()
	<-started

	// Second toggle lands while the first call is on the wire.
	err = session.ToggleOverride(ctx, lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", false, "")
	assert.NoError(t, err)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)

	snap := session.Snapshot()
	assert.True(t, snap.Deductions[0].IsManualOverride)
}

func TestToggleOverrideRevertsOnNetworkFailure(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "")
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeUpstreamError, appErr.Code)

	snap := session.Snapshot()
	item := snap.Deductions[0]
	assert.False(t, item.IsManualOverride)
	assert.Nil(t, item.AutoComputedAmount)
	assert.Equal(t, "420", item.Amount.String())
	assert.False(t, item.InFlight)
}

func TestToggleOverrideRejectsIneligibleCode(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			t.Fatal("no adjustment call expected")
			return nil, nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.ToggleOverride(actorContext(), lineitem.SectionEarning, "BASE_SALARY", true, "")
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeValidationError, appErr.Code)
}

func TestDebouncedAmountPersistSendsOnlyFinalValue(t *testing.T) {
	var submitted []backend.AdjustmentRequest
	var mu sync.Mutex
	done := make(chan struct{}, 4)
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			mu.Lock()
			submitted = append(submitted, req)
			mu.Unlock()
			done <- struct{}{}
			return &backend.AdjustmentResult{
				IsManual:       true,
				OriginalAmount: decimal.NewFromInt(420),
				AdjustedAmount: req.Amount,
			}, nil
		},
	}
	cfg := editsession.DefaultConfig()
	cfg.DebounceInterval = 30 * time.Millisecond
	manager := newTestManager(client, cfg, nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "")
	assert.NoError(t, err)
	<-done

	// Rapid keystrokes: only the final amount must reach the backend.
	for _, v := range []int64{4, 41, 410, 350} {
		err = session.SetAmount(lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", decimal.NewFromInt(v))
		assert.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced persist")
	}
	// Grace period to catch extra calls the debouncer should have absorbed.
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, submitted, 2)
	assert.Equal(t, "350", submitted[1].Amount.String())
}

func TestDebouncedPersistFailureKeepsLocalAmountAndSurfacesError(t *testing.T) {
	firstCall := true
	done := make(chan struct{}, 2)
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			defer func() { done <- struct{}{} }()
			if firstCall {
				firstCall = false
				return &backend.AdjustmentResult{
					IsManual:       true,
					OriginalAmount: decimal.NewFromInt(420),
					AdjustedAmount: req.Amount,
				}, nil
			}
			return nil, errors.New("connection reset")
		},
	}
	cfg := editsession.DefaultConfig()
	cfg.DebounceInterval = 20 * time.Millisecond
	manager := newTestManager(client, cfg, nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "")
	assert.NoError(t, err)
	<-done

	err = session.SetAmount(lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", decimal.NewFromInt(350))
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced persist")
	}
	// The session records the failure after the call returns.
	time.Sleep(50 * time.Millisecond)

	snap := session.Snapshot()
	item := snap.Deductions[0]
	assert.Equal(t, "350", item.Amount.String())
	assert.Contains(t, item.SyncError, "connection reset")
	assert.Equal(t, "5650", snap.Totals.NetPay.String())
}

func TestSetAmountRejectsNegativeUnlessAllowlisted(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
	}
	cfg := editsession.DefaultConfig()
	cfg.NegativeAmountCodes = map[string]struct{}{"HOUSING_FUND_PERSONAL": {}}
	manager := newTestManager(client, cfg, nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.SetAmount(lineitem.SectionEarning, "BASE_SALARY", decimal.NewFromInt(-100))
	assert.Error(t, err)

	err = session.SetAmount(lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", decimal.NewFromInt(-50))
	assert.NoError(t, err)
}

func TestAddItemValidation(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	assert.Error(t, session.AddItem(lineitem.SectionEarning, "NO_SUCH_CODE"))
	assert.Error(t, session.AddItem(lineitem.SectionEarning, "PENSION_PERSONAL"))
	assert.Error(t, session.AddItem(lineitem.SectionEarning, "BASE_SALARY"))

	assert.NoError(t, session.AddItem(lineitem.SectionEarning, "PERFORMANCE_BONUS"))

	snap := session.Snapshot()
	assert.Len(t, snap.Earnings, 2)
	assert.Equal(t, "Performance Bonus", snap.Earnings[1].Description)
	assert.True(t, snap.Earnings[1].Amount.IsZero())
}

func TestSaveRequiresAnEarningAndSendsWirePayload(t *testing.T) {
	var saved *backend.SaveEntryRequest
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		saveEntryFn: func(ctx context.Context, entryID string, req backend.SaveEntryRequest) (*backend.Entry, error) {
			saved = &req
			return &backend.Entry{
				ID:                entryID,
				EarningsDetails:   json.RawMessage(`{"BASE_SALARY": 6000}`),
				DeductionsDetails: json.RawMessage(`{"HOUSING_FUND_PERSONAL": 420}`),
			}, nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	snap, err := session.Save(context.Background())
	assert.NoError(t, err)
	assert.True(t, snap.Persisted)

	if assert.NotNil(t, saved) {
		assert.Contains(t, saved.EarningsDetails, "BASE_SALARY")
		assert.Contains(t, saved.DeductionsDetails, "HOUSING_FUND_PERSONAL")
		// The catalog-invalid item never reaches the backend.
		assert.NotContains(t, saved.DeductionsDetails, "GHOST_CODE")
		assert.Equal(t, "6000", saved.GrossPay.String())
		assert.Equal(t, "420", saved.TotalDeductions.String())
		assert.Equal(t, "5580", saved.NetPay.String())
	}

	// Removing the only earning blocks the next save.
	assert.NoError(t, session.RemoveItem(lineitem.SectionEarning, "BASE_SALARY"))
	_, err = session.Save(context.Background())
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeValidationError, appErr.Code)
}

func TestSaveSurfacesBackendValidationError(t *testing.T) {
	backendErr := apperror.New(apperror.CodeValidationError, "gross pay mismatch", 400)
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		saveEntryFn: func(ctx context.Context, entryID string, req backend.SaveEntryRequest) (*backend.Entry, error) {
			return nil, backendErr
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	_, err = session.Save(context.Background())
	assert.ErrorIs(t, err, backendErr)

	// Local edits survive so the user can correct and retry.
	snap := session.Snapshot()
	assert.Len(t, snap.Earnings, 1)
}

func TestUnsavedEntryOverrideStaysLocal(t *testing.T) {
	client := &fakeBackendClient{
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			t.Fatal("no adjustment call expected for an unsaved entry")
			return nil, nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "")
	assert.NoError(t, err)

	assert.NoError(t, session.AddItem(lineitem.SectionEarning, "BASE_SALARY"))
	assert.NoError(t, session.AddItem(lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL"))
	assert.NoError(t, session.SetAmount(lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", decimal.NewFromInt(420)))

	err = session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "")
	assert.NoError(t, err)

	snap := session.Snapshot()
	assert.False(t, snap.Persisted)
	assert.True(t, snap.Deductions[0].IsManualOverride)
	assert.Equal(t, "user-7", snap.Deductions[0].OverriddenBy)
}

func TestToggleOverrideRecordsAudit(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
	}
	recorder := newFakeAuditRecorder()
	manager := newTestManager(client, editsession.DefaultConfig(), recorder)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "HOUSING_FUND_PERSONAL", true, "court order")
	assert.NoError(t, err)

	record := recorder.wait(t)
	assert.Equal(t, "entry-1", record.EntryID)
	assert.Equal(t, "HOUSING_FUND_PERSONAL", record.ComponentCode)
	assert.Equal(t, audit.ActionOverrideEnabled, record.Action)
	assert.Equal(t, "court order", record.Reason)
	assert.Equal(t, "user-7", record.ActorID)
}

func TestManagerSessionScopedToCompany(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	_, err = manager.Get(session.ID, "company-1")
	assert.NoError(t, err)

	_, err = manager.Get(session.ID, "company-2")
	assert.Error(t, err)

	assert.NoError(t, manager.Close(session.ID, "company-1"))
	_, err = manager.Get(session.ID, "company-1")
	assert.Error(t, err)
}

func TestClosedSessionRejectsEdits(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
	}
	manager := newTestManager(client, editsession.DefaultConfig(), nil)
	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	session.Close()

	assert.Error(t, session.SetAmount(lineitem.SectionEarning, "BASE_SALARY", decimal.NewFromInt(1)))
	assert.Error(t, session.AddItem(lineitem.SectionEarning, "PERFORMANCE_BONUS"))
	_, err = session.Save(context.Background())
	assert.Error(t, err)
}

func TestCatalogInvalidItemsAreReadOnly(t *testing.T) {
	client := &fakeBackendClient{
		fetchEntryFn: func(ctx context.Context, entryID string) (*backend.Entry, error) {
			return testEntry(), nil
		},
		submitAdjustmentFn: func(ctx context.Context, entryID string, req backend.AdjustmentRequest) (*backend.AdjustmentResult, error) {
			t.Errorf("unexpected adjustment call for %s", req.ComponentCode)
			return nil, nil
		},
	}
	// Allow-listing the code isolates the catalog check from the
	// eligibility check.
	cfg := editsession.DefaultConfig()
	cfg.OverridableCodes["GHOST_CODE"] = struct{}{}
	manager := newTestManager(client, cfg, nil)

	session, err := manager.Open(context.Background(), "company-1", "entry-1")
	assert.NoError(t, err)

	err = session.SetAmount(lineitem.SectionDeduction, "GHOST_CODE", decimal.NewFromInt(999))
	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeValidationError, appErr.Code)

	assert.Error(t, session.ToggleOverride(actorContext(), lineitem.SectionDeduction, "GHOST_CODE", true, ""))
	assert.Error(t, session.RemoveItem(lineitem.SectionDeduction, "GHOST_CODE"))

	// The diagnostic entry is untouched and still excluded from totals.
	snap := session.Snapshot()
	assert.Len(t, snap.InvalidItems, 1)
	assert.Equal(t, "GHOST_CODE", snap.InvalidItems[0].Code)
	assert.Equal(t, "10", snap.InvalidItems[0].Amount.String())
	assert.Equal(t, "5580", snap.Totals.NetPay.String())
}
