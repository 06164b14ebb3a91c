package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	KeyToken  = "token"
	KeyUserID = "userId"
)

var (
	ErrValidation         = errors.New("validation")
	ErrProfileUnavailable = errors.New("profile unavailable")
)

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token, id string) (*models.User, error)
}

// State is a consistent snapshot of the session used for access decisions.
type State struct {
	Token   string
	User    *models.User
	Loading bool
}

func (s State) IsAuthenticated() bool { return s.Token != "" }

func (s State) IsAdmin() bool { return s.User.IsAdmin() }

type Store struct {
	Storage  storage.Store
	Profiles ProfileFetcher
	Now      func() time.Time

	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool
	// gen changes on every Login and Logout; a restore started under an older gen is stale.
	gen uint64
}

func New(st storage.Store, profiles ProfileFetcher) *Store {
	return &Store{
		Storage:  st,
		Profiles: profiles,
		Now:      time.Now,
		loading:  true,
	}
}

// Initialize restores the persisted session. A failed restore ends in Logout unless a Login or
// Logout happened meanwhile, in which case the restore result is dropped. A cancelled ctx leaves
// the persisted credential in place. IsLoading is false afterwards.
func (s *Store) Initialize(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "session.initialize")
	defer s.setLoading(false)

	gen := s.generation()

	token, tokErr := s.Storage.Get(ctx, KeyToken)
	userID, idErr := s.Storage.Get(ctx, KeyUserID)
	if errors.Is(tokErr, storage.ErrNotFound) && errors.Is(idErr, storage.ErrNotFound) {
		return
	}
	if ctx.Err() != nil {
		l.Info("session_restore_cancelled", "error", ctx.Err())
		return
	}
	if tokErr != nil || idErr != nil || token == "" || userID == "" {
		l.Warn("session_restore_failed", "reason", "incomplete persisted session", "token_error", errString(tokErr), "user_id_error", errString(idErr))
		s.abandonRestore(ctx, gen)
		return
	}

	if tokens.Expired(token, s.Now()) {
		l.Info("session_restore_failed", "reason", "token expired")
		s.abandonRestore(ctx, gen)
		return
	}

	user, err := s.Profiles.FetchProfile(ctx, token, userID)
	if err != nil {
		if ctx.Err() != nil {
			l.Info("session_restore_cancelled", "error", err)
			return
		}
		l.Warn("session_restore_failed", "reason", "session expired or invalid", "error", err)
		s.abandonRestore(ctx, gen)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		l.Info("session_restore_discarded", "reason", "session changed during restore")
		return
	}
	s.token = token
	s.user = user
	l.Info("session_restored", "user_id", userID)
}

// abandonRestore logs out only if nothing replaced the session since gen was read.
func (s *Store) abandonRestore(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		logging.FromContext(ctx).Info("session_restore_discarded", "reason", "session changed during restore")
		return
	}
	s.clearLocked(ctx)
}

// Login persists the credential, then loads the profile. A failed profile fetch logs the session
// out again and returns ErrProfileUnavailable, so token and user never stay half set.
func (s *Store) Login(ctx context.Context, auth *models.AuthResponse) error {
	l := logging.FromContext(ctx).With("svc", "session.login")

	if auth == nil || auth.Token == "" || auth.ID == "" {
		return fmt.Errorf("token and id are required: %w", ErrValidation)
	}

	s.mu.Lock()
	if err := s.Storage.Set(ctx, KeyToken, auth.Token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.Storage.Set(ctx, KeyUserID, auth.ID); err != nil {
		_ = s.Storage.Remove(ctx, KeyToken)
		s.mu.Unlock()
		return fmt.Errorf("persist user id: %w", err)
	}
	s.gen++
	gen := s.gen
	s.token = auth.Token
	s.user = nil
	s.mu.Unlock()

	user, err := s.Profiles.FetchProfile(ctx, auth.Token, auth.ID)
	if err != nil {
		l.Error("login_profile_failed", "user_id", auth.ID, "error", err)
		s.mu.Lock()
		if s.gen == gen {
			s.clearLocked(ctx)
		}
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		l.Warn("login_profile_discarded", "reason", "session changed during profile fetch")
		return nil
	}
	s.user = user
	l.Info("login_successful", "user_id", auth.ID, "admin", user.IsAdmin())
	return nil
}

func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

// clearLocked must be called with mu held.
func (s *Store) clearLocked(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	for _, key := range []string{KeyToken, KeyUserID} {
		if err := s.Storage.Remove(ctx, key); err != nil {
			l.Error("logout_storage_error", "key", key, "error", err)
		}
	}

	s.gen++
	s.token = ""
	s.user = nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Token: s.token, User: copyUser(s.user), Loading: s.loading}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the profile, or nil when no profile is loaded.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) IsAuthenticated() bool { return s.State().IsAuthenticated() }

func (s *Store) IsAdmin() bool { return s.State().IsAdmin() }

func (s *Store) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
