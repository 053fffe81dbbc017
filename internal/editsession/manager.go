package editsession

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vmxmy/salary-system-v2-sub006/internal/backend"
	"github.com/vmxmy/salary-system-v2-sub006/internal/catalog"
	"github.com/vmxmy/salary-system-v2-sub006/internal/shared/apperror"
)

// Manager is the in-memory registry of live editing sessions. Opening a
// session fetches the payroll entry and warms the component catalog
// concurrently; the session is served as soon as the entry is in, with the
// catalog filter applied once its load lands.
type Manager struct {
	client   backend.Client
	catalog  *catalog.Cache
	cfg      Config
	recorder AuditRecorder
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(client backend.Client, cache *catalog.Cache, cfg Config, recorder AuditRecorder, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.L().Named("editsession")
	}
	return &Manager{
		client:   client,
		catalog:  cache,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
		sessions: map[string]*Session{},
	}
}

// Open starts an editing session. An empty entryID opens a session for a
// brand new entry; overrides on it stay local until the first save.
func (m *Manager) Open(ctx context.Context, companyID, entryID string) (*Session, error) {
	var entry *backend.Entry
	if entryID != "" {
		fetched, err := m.client.FetchEntry(ctx, entryID)
		if err != nil {
			return nil, err
		}
		entry = fetched
	}

	session := newSession(entry, companyID, m.client, m.catalog, m.cfg, m.recorder, m.logger)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	if !m.catalog.Ready() {
		go func() {
			loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.catalog.Load(loadCtx); err != nil {
				m.logger.Warn("catalog load failed, session stays unfiltered", zap.Error(err))
				return
			}
			session.ApplyCatalog()
		}()
	}

	return session, nil
}

// Get returns a live session, scoped to the caller's company.
func (m *Manager) Get(sessionID, companyID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok || session.CompanyID != companyID {
		return nil, apperror.New(apperror.CodeNotFound, "Editing session not found", http.StatusNotFound)
	}
	return session, nil
}

// Close discards a session; unsaved edits are dropped.
func (m *Manager) Close(sessionID, companyID string) error {
	session, err := m.Get(sessionID, companyID)
	if err != nil {
		return err
	}

	session.Close()

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// Shutdown flushes pending debounced edits on every live session. Called
// from the HTTP server's graceful-stop path.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Flush()
		s.Close()
	}
}
