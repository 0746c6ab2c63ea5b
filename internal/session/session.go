// Package session owns the identity of the logged in backend user.
//
// A single Manager loads, saves and clears the session; every other
// component receives the Session value it needs explicitly.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autofin/internal/api"
	"autofin/internal/log"
)

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("no active session")

type Session struct {
	ID        string
	UserID    string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Store persists at most one session.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Authenticator verifies credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.User, error)
}

// Manager is the only component allowed to touch the Store.
type Manager struct {
	store Store
	now   func() time.Time

	mu      sync.Mutex
	current *Session
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Current returns the active session, loading it from the store on first
// use. It returns ErrNoSession when nobody is logged in.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return *m.current, nil
	}
	s, err := m.store.Load(ctx)
	if err != nil {
		return Session{}, err
	}
	m.current = &s
	return s, nil
}

// Login authenticates and replaces any previous session.
func (m *Manager) Login(ctx context.Context, auth Authenticator, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("login: %w", api.ErrInvalidCredentials)
	}
	user, err := auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	return m.Start(ctx, user)
}

// Start stores a fresh session for user.
func (m *Manager) Start(ctx context.Context, user api.User) (Session, error) {
	if user.ID == "" {
		return Session{}, api.ErrMissingUser
	}
	s := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	m.current = &s

	slog.InfoContext(ctx, "Session started", log.FieldComponent, log.ComponentSession, "session_id", s.ID, log.FieldUserID, s.UserID)
	return s, nil
}

// Logout clears the stored session.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.current = nil
	return nil
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu sync.Mutex
	s  *Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return Session{}, ErrNoSession
	}
	return *m.s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
