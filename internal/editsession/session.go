package editsession

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/audit"
	"github.com/vmxmy/salary-system-v2-sub006/internal/backend"
	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
	"github.com/vmxmy/salary-system-v2-sub006/internal/lineitem"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/contextutil"
)

// AuditRecorder records successful override transitions. Satisfied by
// audit.Service; nil disables recording.
type AuditRecorder interface {
	RecordOverride(ctx context.Context, record audit.OverrideAudit) error
}

// Session owns one payroll entry being edited. All mutation goes through
// its mutex; the per-item in-flight set serializes override toggles and the
// debouncer coalesces amount persistence. Sessions are discarded on cancel
// and flushed to the backend as one save.
type Session struct {
	ID        string
	EntryID   string
	CompanyID string

	client   backend.Client
	catalog  *catalog.Cache
	cfg      Config
	recorder AuditRecorder
	logger   *zap.Logger
	debounce *Debouncer

	mu         sync.Mutex
	persisted  bool
	closed     bool
	raw        map[lineitem.Section][]lineitem.LineItem
	valid      map[lineitem.Section][]lineitem.LineItem
	invalid    []lineitem.InvalidItem
	totals     lineitem.Totals
	inflight   map[string]bool
	syncErrors map[string]string
}

func newSession(
	entry *backend.Entry,
	companyID string,
	client backend.Client,
	cache *catalog.Cache,
	cfg Config,
	recorder AuditRecorder,
	logger *zap.Logger,
) *Session {
	s := &Session{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		client:     client,
		catalog:    cache,
		cfg:        cfg,
		recorder:   recorder,
		logger:     logger,
		debounce:   NewDebouncer(cfg.DebounceInterval),
		raw:        map[lineitem.Section][]lineitem.LineItem{},
		valid:      map[lineitem.Section][]lineitem.LineItem{},
		inflight:   map[string]bool{},
		syncErrors: map[string]string{},
	}

	if entry != nil {
		s.EntryID = entry.ID
		s.persisted = entry.ID != ""
		s.raw[lineitem.SectionEarning] = lineitem.Normalize(entry.EarningsDetails, lineitem.SectionEarning)
		s.raw[lineitem.SectionDeduction] = lineitem.Normalize(entry.DeductionsDetails, lineitem.SectionDeduction)
	}

	s.refreshLocked()
	return s
}

// ApplyCatalog re-derives the editable set once the catalog load lands.
// The session shows the unfiltered set until then, so entry fetch and
// catalog fetch never block each other and converge in either order.
func (s *Session) ApplyCatalog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.refreshLocked()
}

// refreshLocked re-partitions the raw lists against the catalog and
// recomputes the totals. Called after every mutation; s.mu must be held.
func (s *Session) refreshLocked() {
	s.invalid = nil
	for _, section := range []lineitem.Section{lineitem.SectionEarning, lineitem.SectionDeduction} {
		valid, invalid := lineitem.Partition(s.raw[section], s.catalog, section)
		s.valid[section] = valid
		s.invalid = append(s.invalid, invalid...)
	}

	if len(s.invalid) > 0 {
		codes := make([]string, 0, len(s.invalid))
		for _, item := range s.invalid {
			codes = append(codes, item.Item.Code)
		}
		s.logger.Warn("line items excluded by catalog filter",
			zap.String("entry_id", s.EntryID),
			zap.Strings("codes", codes),
		)
	}

	s.totals = lineitem.ComputeTotals(s.valid[lineitem.SectionEarning], s.valid[lineitem.SectionDeduction])
}

func itemKey(section lineitem.Section, code string) string {
	return string(section) + ":" + code
}

func (s *Session) rawIndex(section lineitem.Section, code string) int {
	for i, item := range s.raw[section] {
		if item.Code == code {
			return i
		}
	}
	return -1
}

// invalidLocked reports whether the catalog filter excluded the item. While
// the catalog is still loading every item is shown and editable; once it is
// ready the invalid partition is read-only diagnostics.
func (s *Session) invalidLocked(section lineitem.Section, code string) bool {
	if !s.catalog.Ready() {
		return false
	}
	for _, inv := range s.invalid {
		if inv.Item.Section == section && inv.Item.Code == code {
			return true
		}
	}
	return false
}

func errItemNotEditable(code string) error {
	return apperror.New(apperror.CodeValidationError, "Line item "+code+" was excluded by the component catalog and is not editable", http.StatusBadRequest)
}

// AddItem appends a new zero-amount line item. The catalog must be loaded:
// adding is the one operation that cannot run optimistically, because an
// unknown code would poison the save payload.
func (s *Session) AddItem(section lineitem.Section, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSessionClosed()
	}
	if !s.catalog.Ready() {
		return apperror.New(apperror.CodeInvalidState, "Component catalog is still loading, try again", http.StatusConflict)
	}

	def, found := s.catalog.Lookup(code)
	if !found {
		return apperror.New(apperror.CodeValidationError, "Unknown component code: "+code, http.StatusBadRequest)
	}
	if !lineitem.CategoryAllowedInSection(def.Category, section) {
		return apperror.New(apperror.CodeValidationError, "Component "+code+" does not belong in the "+string(section)+" section", http.StatusBadRequest)
	}
	if s.rawIndex(section, code) >= 0 {
		return apperror.New(apperror.CodeConflict, "Line item "+code+" already exists", http.StatusConflict)
	}

	s.raw[section] = append(s.raw[section], lineitem.LineItem{
		Code:        code,
		Description: def.DisplayName,
		Section:     section,
		Amount:      decimal.Zero,
	})
	s.refreshLocked()
	return nil
}

func (s *Session) RemoveItem(section lineitem.Section, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSessionClosed()
	}

	idx := s.rawIndex(section, code)
	if idx < 0 {
		return apperror.ErrNotFound
	}
	if s.invalidLocked(section, code) {
		return errItemNotEditable(code)
	}

	s.raw[section] = append(s.raw[section][:idx], s.raw[section][idx+1:]...)

	key := itemKey(section, code)
	s.debounce.Cancel(key)
	delete(s.syncErrors, key)

	s.refreshLocked()
	return nil
}

// SetAmount updates a line item's amount. On an overridden, persisted item
// the change is pushed to the backend after the debounce quiet period; the
// local value always wins immediately.
func (s *Session) SetAmount(section lineitem.Section, code string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSessionClosed()
	}

	idx := s.rawIndex(section, code)
	if idx < 0 {
		return apperror.ErrNotFound
	}
	if s.invalidLocked(section, code) {
		return errItemNotEditable(code)
	}

	if amount.IsNegative() {
		if _, allowed := s.cfg.NegativeAmountCodes[code]; !allowed {
			return apperror.New(apperror.CodeValidationError, "Negative amounts are not allowed for "+code, http.StatusBadRequest)
		}
	}

	item := &s.raw[section][idx]
	item.Amount = amount
	s.refreshLocked()

	if item.IsManualOverride && s.persisted {
		s.scheduleAmountPersistLocked(section, code)
	}

	return nil
}

// scheduleAmountPersistLocked (re)starts the per-item debounce timer. The
// amount is read back from session state when the timer fires, so only the
// final value of a rapid edit burst is ever sent.
func (s *Session) scheduleAmountPersistLocked(section lineitem.Section, code string) {
	key := itemKey(section, code)
	s.debounce.Schedule(key, func() {
		s.persistAmount(section, code)
	})
}

func (s *Session) persistAmount(section lineitem.Section, code string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	idx := s.rawIndex(section, code)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	// The catalog may have landed since the edit was scheduled.
	if s.invalidLocked(section, code) {
		s.mu.Unlock()
		return
	}
	item := s.raw[section][idx]
	entryID := s.EntryID
	key := itemKey(section, code)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := s.client.SubmitAdjustment(ctx, entryID, backend.AdjustmentRequest{
		ComponentCode: code,
		Amount:        item.Amount,
		Reason:        item.OverrideReason,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if err != nil {
		// The local amount is the user's keystrokes; keep it. The next
		// edit or an explicit retry resolves the drift.
		s.syncErrors[key] = err.Error()
		s.logger.Error("debounced amount persist failed",
			zap.String("entry_id", entryID),
			zap.String("component_code", code),
			zap.Error(err),
		)
		return
	}

	delete(s.syncErrors, key)
	s.adoptAdjustmentLocked(section, code, result)
	s.refreshLocked()
}

// ToggleOverride drives the per-item state machine between Automatic and
// Overridden. Re-entrant toggles while a call is in flight are silently
// ignored; that guard is a debounce of intent, not an error.
func (s *Session) ToggleOverride(ctx context.Context, section lineitem.Section, code string, enable bool, reason string) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return errSessionClosed()
	}

	idx := s.rawIndex(section, code)
	if idx < 0 {
		s.mu.Unlock()
		return apperror.ErrNotFound
	}
	if s.invalidLocked(section, code) {
		s.mu.Unlock()
		return errItemNotEditable(code)
	}

	key := itemKey(section, code)
	if s.inflight[key] {
		s.mu.Unlock()
		return nil
	}

	item := &s.raw[section][idx]
	if item.IsManualOverride == enable {
		s.mu.Unlock()
		return nil
	}

	if enable {
		if _, eligible := s.cfg.OverridableCodes[code]; !eligible || section != lineitem.SectionDeduction {
			s.mu.Unlock()
			return apperror.New(apperror.CodeValidationError, "Component "+code+" is not eligible for manual override", http.StatusBadRequest)
		}
	} else if item.AutoComputedAmount == nil {
		s.mu.Unlock()
		return apperror.New(apperror.CodeInvalidState, "No system-computed amount captured for "+code, http.StatusConflict)
	}

	previous := *item
	actorID := contextutil.GetActorID(ctx)
	if reason == "" {
		reason = defaultOverrideReason
	}

	if enable {
		now := time.Now().UTC()
		auto := item.Amount
		item.IsManualOverride = true
		item.AutoComputedAmount = &auto
		item.OverriddenAt = &now
		item.OverriddenBy = actorID
		item.OverrideReason = reason
	} else {
		reason = revertOverrideReason
		item.ClearOverride()
		// Pending debounced edits are moot once the amount reverts.
		s.debounce.Cancel(key)
	}
	s.refreshLocked()

	// New, unsaved entries stay purely local; the eventual create call
	// carries the override fields.
	if !s.persisted {
		s.mu.Unlock()
		return nil
	}

	s.inflight[key] = true
	request := backend.AdjustmentRequest{
		ComponentCode: code,
		Amount:        s.raw[section][idx].Amount,
		Reason:        reason,
	}
	entryID := s.EntryID
	s.mu.Unlock()

	result, callErr := s.client.SubmitAdjustment(ctx, entryID, request)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)

	if s.closed {
		return nil
	}

	idx = s.rawIndex(section, code)
	if idx < 0 {
		return nil
	}

	if callErr != nil {
		// Roll the transition back; the item stays in its pre-toggle state.
		s.raw[section][idx] = previous
		s.refreshLocked()
		s.logger.Error("override toggle persist failed",
			zap.String("entry_id", entryID),
			zap.String("component_code", code),
			zap.Bool("enable", enable),
			zap.Error(callErr),
		)
		return apperror.Wrap(callErr, apperror.CodeUpstreamError, "Persisting the override change failed", http.StatusBadGateway)
	}

	if enable {
		s.adoptAdjustmentLocked(section, code, result)
	}
	s.refreshLocked()

	s.recordAuditLocked(ctx, section, code, enable, reason, previous.Amount, actorID)
	return nil
}

// adoptAdjustmentLocked reconciles the authoritative manual-adjustment
// response into local state. Server clock and author win over local stamps;
// a response without is_manual is tolerated with a warning and the local
// stamps stand (defensive default).
func (s *Session) adoptAdjustmentLocked(section lineitem.Section, code string, result *backend.AdjustmentResult) {
	idx := s.rawIndex(section, code)
	if idx < 0 || result == nil {
		return
	}
	item := &s.raw[section][idx]
	if !item.IsManualOverride {
		return
	}

	if !result.IsManual {
		s.logger.Warn("manual-adjustment response missing is_manual, keeping local audit stamps",
			zap.String("entry_id", s.EntryID),
			zap.String("component_code", code),
		)
		return
	}

	item.Amount = result.AdjustedAmount
	original := result.OriginalAmount
	item.AutoComputedAmount = &original
	if result.ManualBy != "" {
		item.OverriddenBy = result.ManualBy
	}
	if result.ManualReason != "" {
		item.OverrideReason = result.ManualReason
	}
	if at := parseServerTime(result.ManualAt); at != nil {
		item.OverriddenAt = at
	}
}

func (s *Session) recordAuditLocked(ctx context.Context, section lineitem.Section, code string, enable bool, reason string, previousAmount decimal.Decimal, actorID string) {
	if s.recorder == nil {
		return
	}

	idx := s.rawIndex(section, code)
	if idx < 0 {
		return
	}
	item := s.raw[section][idx]

	action := audit.ActionOverrideReverted
	if enable {
		action = audit.ActionOverrideEnabled
	}

	companyID, err := uuid.Parse(s.CompanyID)
	if err != nil {
		companyID = uuid.Nil
	}

	record := audit.OverrideAudit{
		CompanyID:      companyID,
		EntryID:        s.EntryID,
		ComponentCode:  code,
		Section:        string(section),
		Action:         action,
		Amount:         item.Amount,
		PreviousAmount: previousAmount,
		Reason:         reason,
		ActorID:        actorID,
	}

	// The audit trail must never block or fail the edit itself.
	go func() {
		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		recordCtx = contextutil.WithRequestID(recordCtx, contextutil.GetRequestID(ctx))
		if err := s.recorder.RecordOverride(recordCtx, record); err != nil {
			s.logger.Error("record override audit failed",
				zap.String("entry_id", record.EntryID),
				zap.String("component_code", record.ComponentCode),
				zap.Error(err),
			)
		}
	}()
}

// Save validates the edit, cancels pending per-item persists (the full
// payload supersedes them), sends the map-of-code serialization with the
// recomputed totals, and reconciles the saved entry back into the session.
func (s *Session) Save(ctx context.Context) (SessionSnapshot, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return SessionSnapshot{}, errSessionClosed()
	}
	if len(s.valid[lineitem.SectionEarning]) == 0 {
		s.mu.Unlock()
		return SessionSnapshot{}, apperror.New(apperror.CodeValidationError, "At least one earning line item is required", http.StatusBadRequest)
	}

	s.debounce.CancelAll()

	request := backend.SaveEntryRequest{
		EarningsDetails:   lineitem.ToWireMap(s.valid[lineitem.SectionEarning]),
		DeductionsDetails: lineitem.ToWireMap(s.valid[lineitem.SectionDeduction]),
		GrossPay:          s.totals.GrossPay,
		TotalDeductions:   s.totals.TotalDeductions,
		NetPay:            s.totals.NetPay,
	}
	entryID := s.EntryID
	s.mu.Unlock()

	saved, err := s.client.SaveEntry(ctx, entryID, request)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// Totals keep reflecting local state so the user can correct and
		// retry; the backend's validation message surfaces verbatim.
		return s.snapshotLocked(), err
	}
	if s.closed {
		return s.snapshotLocked(), nil
	}

	if saved != nil {
		if saved.ID != "" {
			s.EntryID = saved.ID
		}
		s.persisted = true
		s.raw[lineitem.SectionEarning] = lineitem.Normalize(saved.EarningsDetails, lineitem.SectionEarning)
		s.raw[lineitem.SectionDeduction] = lineitem.Normalize(saved.DeductionsDetails, lineitem.SectionDeduction)
		s.refreshLocked()
	}

	return s.snapshotLocked(), nil
}

// Flush persists any pending debounced edit synchronously. For orderly
// shutdown; a user cancel goes through Close instead.
func (s *Session) Flush() {
	s.debounce.Flush()
}

// Close discards the session. Pending debounced calls are cancelled and
// network completions arriving afterwards become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.debounce.CancelAll()
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func errSessionClosed() error {
	return apperror.New(apperror.CodeInvalidState, "Editing session is closed", http.StatusConflict)
}

func parseServerTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
