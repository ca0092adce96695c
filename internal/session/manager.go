// Package session holds the single upstream session shared by the process.
package session

import (
	"context"
	"log/slog"
	"sync"
)

// Authenticator opens a new upstream session
type Authenticator interface {
	InitSession(ctx context.Context) (string, error)
}

// Manager owns the current session token. It has no expiry timer: a token
// stays current until a later Login replaces it.
type Manager struct {
	auth   Authenticator
	logger *slog.Logger

	mu    sync.RWMutex
	token string
	set   bool
}

// NewManager creates a manager with no session
func NewManager(auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{auth: auth, logger: logger}
}

// Current returns the stored token and whether one has been acquired
func (m *Manager) Current() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.set
}

// Login acquires a new token and stores it. On failure the previous token,
// if any, is kept. Login never retries.
func (m *Manager) Login(ctx context.Context) (string, error) {
	token, err := m.auth.InitSession(ctx)
	if err != nil {
		m.logger.Error("pms login failed", "error", err)
		return "", err
	}

	m.mu.Lock()
	m.token = token
	m.set = true
	m.mu.Unlock()

	return token, nil
}
