package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type fakeProfiles struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeProfiles) FetchProfile(_ context.Context, _ string, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("no such user")
	}
	return u, nil
}

func adminUser() *models.User {
	return &models.User{ID: "u1", UserName: "root", FullName: "Root", Role: models.UserRole{RoleName: models.RoleAdmin}}
}

func plainUser() *models.User {
	return &models.User{ID: "u2", UserName: "bob", FullName: "Bob", Role: models.UserRole{RoleName: models.RoleUser}}
}

func newStore(t *testing.T, profiles *fakeProfiles) (*Store, *storage.MemoryStore) {
	t.Helper()
	st := storage.NewMemoryStore()
	return New(st, profiles), st
}

func TestNew_StartsLoading(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t, &fakeProfiles{})
	assert.True(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())
}

func TestInitialize_NothingPersisted(t *testing.T) {
	t.Parallel()

	profiles := &fakeProfiles{}
	s, _ := newStore(t, profiles)
	s.Initialize(context.Background())

	assert.False(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, profiles.calls)
}

func TestInitialize_RestoresSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	profiles := &fakeProfiles{users: map[string]*models.User{"u1": adminUser()}}
	s, st := newStore(t, profiles)
	require.NoError(t, st.Set(ctx, KeyToken, "tok"))
	require.NoError(t, st.Set(ctx, KeyUserID, "u1"))

	s.Initialize(ctx)

	assert.False(t, s.IsLoading())
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "tok", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, "root", s.User().UserName)
}

func TestInitialize_ProfileFailureLogsOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	profiles := &fakeProfiles{err: errors.New("network down")}
	s, st := newStore(t, profiles)
	require.NoError(t, st.Set(ctx, KeyToken, "tok"))
	require.NoError(t, st.Set(ctx, KeyUserID, "u1"))

	s.Initialize(ctx)

	assert.False(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, st.Len())
}

func TestInitialize_IncompletePersistedStateIsCleared(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	profiles := &fakeProfiles{users: map[string]*models.User{"u1": adminUser()}}
	s, st := newStore(t, profiles)
	require.NoError(t, st.Set(ctx, KeyToken, "tok"))

	s.Initialize(ctx)

	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, profiles.calls)
	assert.Zero(t, st.Len())
}

func TestInitialize_ExpiredJWTSkipsFetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	profiles := &fakeProfiles{users: map[string]*models.User{"u1": adminUser()}}
	s, st := newStore(t, profiles)
	require.NoError(t, st.Set(ctx, KeyToken, expired))
	require.NoError(t, st.Set(ctx, KeyUserID, "u1"))

	s.Initialize(ctx)

	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, profiles.calls)
}

func TestLogin_PersistsAndLoadsProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	profiles := &fakeProfiles{users: map[string]*models.User{"u2": plainUser()}}
	s, st := newStore(t, profiles)
	s.Initialize(ctx)

	require.NoError(t, s.Login(ctx, &models.AuthResponse{Token: "tok", ID: "u2", Role: "USER"}))

	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())
	tok, err := st.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	id, err := st.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "u2", id)
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		auth *models.AuthResponse
	}{
		{name: "nil", auth: nil},
		{name: "no token", auth: &models.AuthResponse{ID: "u1"}},
		{name: "no id", auth: &models.AuthResponse{Token: "tok"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, st := newStore(t, &fakeProfiles{})
			err := s.Login(context.Background(), tt.auth)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, st.Len())
		})
	}
}

func TestLogin_ProfileFailureForcesLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, st := newStore(t, &fakeProfiles{err: errors.New("timeout")})
	s.Initialize(ctx)

	err := s.Login(ctx, &models.AuthResponse{Token: "tok", ID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProfileUnavailable)

	state := s.State()
	assert.False(t, state.IsAuthenticated())
	assert.Nil(t, state.User)
	assert.Zero(t, st.Len())
}

func TestLogout_ClearsEverythingAndIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	profiles := &fakeProfiles{users: map[string]*models.User{"u1": adminUser()}}
	s, st := newStore(t, profiles)
	s.Initialize(ctx)
	require.NoError(t, s.Login(ctx, &models.AuthResponse{Token: "tok", ID: "u1"}))
	require.True(t, s.IsAdmin())

	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())
	assert.Nil(t, s.User())
	assert.Zero(t, st.Len())

	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated())
}

func TestUser_ReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	profiles := &fakeProfiles{users: map[string]*models.User{"u1": adminUser()}}
	s, _ := newStore(t, profiles)
	require.NoError(t, s.Login(ctx, &models.AuthResponse{Token: "tok", ID: "u1"}))

	u := s.User()
	u.Role.RoleName = models.RoleUser
	assert.True(t, s.IsAdmin())
}

func TestState_AdminRequiresProfile(t *testing.T) {
	t.Parallel()

	st := State{Token: "tok"}
	assert.True(t, st.IsAuthenticated())
	assert.False(t, st.IsAdmin())
}

// gatedProfiles parks the fetch for "stale" until gate is closed, then answers with staleErr
// or the stale user. Every other id answers at once.
type gatedProfiles struct {
	entered  chan struct{}
	gate     chan struct{}
	staleErr error
}

func (g *gatedProfiles) FetchProfile(ctx context.Context, _ string, id string) (*models.User, error) {
	if id != "stale" {
		return plainUser(), nil
	}
	close(g.entered)
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.staleErr != nil {
		return nil, g.staleErr
	}
	return &models.User{ID: "stale", FullName: "Stale"}, nil
}

func startStaleRestore(t *testing.T, ctx context.Context, staleErr error) (*Store, *storage.MemoryStore, *gatedProfiles, chan struct{}) {
	t.Helper()
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), KeyToken, "stale-tok"))
	require.NoError(t, st.Set(context.Background(), KeyUserID, "stale"))

	profiles := &gatedProfiles{entered: make(chan struct{}), gate: make(chan struct{}), staleErr: staleErr}
	s := New(st, profiles)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Initialize(ctx)
	}()
	select {
	case <-profiles.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("restore never reached the profile fetch")
	}
	return s, st, profiles, done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Initialize did not return")
	}
}

func TestInitialize_StaleRestoreKeepsNewerLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		staleErr error
	}{
		{name: "restore fails", staleErr: errors.New("token revoked")},
		{name: "restore succeeds", staleErr: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			s, st, profiles, done := startStaleRestore(t, ctx, tt.staleErr)

			require.NoError(t, s.Login(ctx, &models.AuthResponse{Token: "fresh", ID: "u2"}))
			require.True(t, s.IsAuthenticated())

			close(profiles.gate)
			waitDone(t, done)

			assert.False(t, s.IsLoading())
			assert.Equal(t, "fresh", s.Token())
			require.NotNil(t, s.User())
			assert.Equal(t, "u2", s.User().ID)

			persisted, err := st.Get(ctx, KeyToken)
			require.NoError(t, err)
			assert.Equal(t, "fresh", persisted)
			id, err := st.Get(ctx, KeyUserID)
			require.NoError(t, err)
			assert.Equal(t, "u2", id)
		})
	}
}

func TestInitialize_StaleRestoreAfterLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, st, profiles, done := startStaleRestore(t, ctx, nil)
	s.Logout(ctx)

	close(profiles.gate)
	waitDone(t, done)

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Zero(t, st.Len())
}

func TestInitialize_CancelledKeepsPersistedCredential(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s, st, _, done := startStaleRestore(t, ctx, nil)

	cancel()
	waitDone(t, done)

	assert.False(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())

	tok, err := st.Get(context.Background(), KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "stale-tok", tok)
	id, err := st.Get(context.Background(), KeyUserID)
	require.NoError(t, err)
	assert.Equal(t, "stale", id)
}
