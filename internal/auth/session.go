// Package auth tracks the signed-in user and their account settings.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/eduforge/internal/logger"
)

var (
	// ErrNoUser is returned by operations that need a signed-in user.
	ErrNoUser = errors.New("auth: not signed in")
	// ErrUnknownModel is returned when a model is not in AvailableModels.
	ErrUnknownModel = errors.New("auth: model not available")
)

// User is the signed-in identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// DisplayName prefers the name and falls back to the email.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

type Model struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Settings is the per-user account configuration.
type Settings struct {
	HasAPIKey       bool    `json:"has_api_key"`
	PreferredModel  string  `json:"preferred_model"`
	AvailableModels []Model `json:"available_models"`
}

// ModelLabel returns the label of id, or id itself.
func (s Settings) ModelLabel(id string) string {
	for _, m := range s.AvailableModels {
		if m.ID == id && m.Label != "" {
			return m.Label
		}
	}
	return id
}

// Backend is the account API the session reads from.
type Backend interface {
	SetToken(token string)
	Me(ctx context.Context) (User, error)
	Settings(ctx context.Context) (Settings, error)
	UpdatePreferredModel(ctx context.Context, model string) (Settings, error)
}

// State is a snapshot of the session.
type State struct {
	User              *User
	IsLoadingSettings bool
	Settings          Settings
	Role              string
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool { return s.User != nil }

// UserID returns the user id or "".
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Session owns the authenticated user and settings. It is safe for
// concurrent use.
type Session struct {
	backend Backend
	log     *log.Logger

	mu       sync.RWMutex
	user     *User
	loading  bool
	settings Settings
}

// NewSession builds an anonymous session.
func NewSession(backend Backend) *Session {
	return &Session{backend: backend, log: logger.NewStyledLogger("auth")}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := State{
		IsLoadingSettings: s.loading,
		Settings:          s.settings,
	}
	state.Settings.AvailableModels = append([]Model(nil), s.settings.AvailableModels...)
	if s.user != nil {
		u := *s.user
		state.User = &u
		state.Role = u.Role
	}
	return state
}

// Login installs token and loads the user and settings.
func (s *Session) Login(ctx context.Context, token string) (State, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Snapshot(), fmt.Errorf("login: empty token")
	}
	s.backend.SetToken(token)
	return s.Refresh(ctx)
}

// Refresh reloads user and settings concurrently. Any failure signs the
// session out.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	var (
		user     User
		settings Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.backend.Me(gctx)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		st, err := s.backend.Settings(gctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		settings = st
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.user = nil
		s.settings = Settings{}
	} else {
		s.user = &user
		s.settings = settings
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Debug("session refresh failed", "err", err)
		return s.Snapshot(), err
	}
	s.log.Debug("session refreshed", "user", user.ID, "role", user.Role)
	return s.Snapshot(), nil
}

// Logout forgets the token, user and settings.
func (s *Session) Logout() State {
	s.backend.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.settings = Settings{}
	s.loading = false
	s.mu.Unlock()
	return s.Snapshot()
}

// SetPreferredModel updates the preferred model on the backend. The model
// must be one of the available models.
func (s *Session) SetPreferredModel(ctx context.Context, model string) (State, error) {
	state := s.Snapshot()
	if !state.SignedIn() {
		return state, ErrNoUser
	}
	found := false
	for _, m := range state.Settings.AvailableModels {
		if m.ID == model {
			found = true
			break
		}
	}
	if !found {
		return state, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	settings, err := s.backend.UpdatePreferredModel(ctx, model)
	if err != nil {
		return state, fmt.Errorf("update preferred model: %w", err)
	}
	s.mu.Lock()
	if s.user != nil {
		s.settings = settings
	}
	s.mu.Unlock()
	return s.Snapshot(), nil
}
