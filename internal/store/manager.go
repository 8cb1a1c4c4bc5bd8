package store

import (
	"context"
	"sync"
	"time"

	"github.com/skillora/instructor-os/internal/logger"
)

// Manager hands out one Store per user and runs the periodic storage check
// over all of them.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	deps          Deps
	checkInterval time.Duration
	log           *logger.Logger
}

// NewManager creates a manager. checkInterval controls how often storage
// pressure is evaluated; zero disables the periodic check.
func NewManager(deps Deps, checkInterval time.Duration) *Manager {
	log := deps.Log
	if log == nil {
		log = logger.Get()
	}
	return &Manager{
		stores:        make(map[string]*Store),
		deps:          deps,
		checkInterval: checkInterval,
		log:           log,
	}
}

// Get returns the user's store, creating it on first use. The token is
// refreshed on every call so expired bearers don't linger.
func (m *Manager) Get(userID, token string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[userID]; ok {
		s.SetToken(token)
		return s
	}
	s := New(userID, token, m.deps)
	m.stores[userID] = s
	return s
}

// Lookup returns the user's store without creating one.
func (m *Manager) Lookup(userID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[userID]
	return s, ok
}

// Run evaluates storage pressure on every store until the context ends.
func (m *Manager) Run(ctx context.Context) {
	if m.checkInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.flushAll()
			return
		case <-ticker.C:
			m.checkAll()
		}
	}
}

func (m *Manager) snapshotStores() []*Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Store, 0, len(m.stores))
	for _, s := range m.stores {
		out = append(out, s)
	}
	return out
}

func (m *Manager) checkAll() {
	for _, s := range m.snapshotStores() {
		action := s.CheckStorage()
		if action == StorageOK {
			continue
		}
		m.log.Debug().Str("user_id", s.userID).Int("action", int(action)).Msg("Storage check flagged a store")
		if m.deps.NotifyStorage == nil {
			continue
		}
		msg := s.StorageError()
		if msg == "" {
			// critical checks evict previews and clear the warning
			msg = "application data exceeded the storage limit, cached previews were removed"
		}
		m.deps.NotifyStorage(s.userID, msg)
	}
}

func (m *Manager) flushAll() {
	for _, s := range m.snapshotStores() {
		s.Flush()
	}
}
