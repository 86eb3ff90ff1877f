package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/medic-pro/internal/clinic"
)

// Manager hands out one Controller per record key, loading it on first use.
// Idle controllers are dropped by Sweep.
type Manager struct {
	mu          sync.Mutex
	deps        Deps
	controllers map[string]*managed
}

type managed struct {
	c        *Controller
	lastUsed time.Time
}

func NewManager(deps Deps) *Manager {
	if deps.Store == nil {
		panic("dashboard: store cannot be nil")
	}
	if deps.IDs == nil {
		deps.IDs = clinic.NewIDGenerator()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{deps: deps, controllers: make(map[string]*managed)}
}

// For returns the initialized controller for key.
func (m *Manager) For(ctx context.Context, key string) (*Controller, error) {
	m.mu.Lock()
	entry, ok := m.controllers[key]
	if !ok {
		entry = &managed{c: NewController(key, m.deps)}
		m.controllers[key] = entry
	}
	entry.lastUsed = m.deps.Now()
	c := entry.c
	m.mu.Unlock()

	if !ok {
		if err := c.Init(ctx); err != nil {
			m.mu.Lock()
			if cur, found := m.controllers[key]; found && cur.c == c {
				delete(m.controllers, key)
			}
			m.mu.Unlock()
			return nil, err
		}
	}
	return c, nil
}

// Forget drops the cached controller so the next call reloads from storage.
func (m *Manager) Forget(key string) {
	m.mu.Lock()
	delete(m.controllers, key)
	m.mu.Unlock()
}

// Len reports how many controllers are cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}

// Sweep drops controllers unused for longer than idle and returns how many
// were removed. A controller in the middle of an operation is kept.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.deps.Now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.controllers {
		if entry.lastUsed.After(cutoff) {
			continue
		}
		if !entry.c.mu.TryLock() {
			continue
		}
		entry.c.mu.Unlock()
		delete(m.controllers, key)
		removed++
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idle)
		}
	}
}
