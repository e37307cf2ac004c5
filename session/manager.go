package session

import (
	"context"
	"sync"

	"projectboard/domain"
	"projectboard/storage"
)

// Authenticator turns an Authorization header into the user it belongs to.
type Authenticator interface {
	UserFromAuthHeader(h string) (domain.User, error)
}

// Manager holds at most one open session.
type Manager struct {
	auth    Authenticator
	backend storage.Backend
	opts    Options

	mu      sync.Mutex
	current *Session
}

func NewManager(auth Authenticator, backend storage.Backend, opts Options) *Manager {
	return &Manager{auth: auth, backend: backend, opts: opts}
}

// Login verifies the header, closes any previous session and opens a new one
// for the token's user.
func (m *Manager) Login(ctx context.Context, authHeader string) (*Session, error) {
	user, err := m.auth.UserFromAuthHeader(authHeader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
	s, err := Open(ctx, user, m.backend, m.opts)
	if err != nil {
		return nil, err
	}
	m.current = s
	return s, nil
}

func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}

// Authorize verifies the header and returns the open session when the token
// belongs to its user.
func (m *Manager) Authorize(authHeader string) (*Session, error) {
	user, err := m.auth.UserFromAuthHeader(authHeader)
	if err != nil {
		return nil, err
	}
	s, err := m.Current()
	if err != nil {
		return nil, err
	}
	if s.User.UID != user.UID {
		return nil, ErrForeignToken
	}
	return s, nil
}

// Current returns the open session or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

func (m *Manager) CurrentUser() (domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.User{}, false
	}
	return m.current.User, true
}
