package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

var (
	ErrInvalidID = errors.New("invalid client id")
	ErrClosed    = errors.New("registry closed")
)

// Workspace is the session and cart of one browser client.
type Workspace struct {
	ID      string
	Session *session.Store
	Cart    *cart.Store

	cartReady chan struct{}
	ready     chan struct{}
	lastSeen  time.Time
}

// Ready is closed once session initialization has finished.
func (w *Workspace) Ready() <-chan struct{} { return w.ready }

func (w *Workspace) settled() bool {
	select {
	case <-w.ready:
		return true
	default:
		return false
	}
}

type Registry struct {
	Storage  storage.Store
	Profiles session.ProfileFetcher
	InitWait time.Duration
	Now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	spaces map[string]*Workspace
	closed bool
}

func NewRegistry(st storage.Store, profiles session.ProfileFetcher, initWait time.Duration) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		Storage:  st,
		Profiles: profiles,
		InitWait: initWait,
		Now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		spaces:   make(map[string]*Workspace),
	}
}

func NewID() string { return uuid.NewString() }

func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Acquire returns the workspace for sid, creating it on first use. The persisted cart is loaded
// before Acquire returns. The session is restored in the background; Acquire waits for that up to
// InitWait, after which the session still reports IsLoading.
func (r *Registry) Acquire(ctx context.Context, sid string) (*Workspace, error) {
	if !ValidID(sid) {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	ws, ok := r.spaces[sid]
	if !ok {
		ws = r.create(ctx, sid)
		r.spaces[sid] = ws
	}
	ws.lastSeen = r.Now()
	r.mu.Unlock()

	select {
	case <-ws.cartReady:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if r.InitWait <= 0 {
		return ws, nil
	}
	timer := time.NewTimer(r.InitWait)
	defer timer.Stop()
	select {
	case <-ws.ready:
	case <-timer.C:
	case <-ctx.Done():
	}
	return ws, nil
}

// create runs with r.mu held; storage is only touched from the goroutine it starts.
func (r *Registry) create(ctx context.Context, sid string) *Workspace {
	st := storage.Namespace(r.Storage, sid)
	ws := &Workspace{
		ID:        sid,
		Session:   session.New(st, r.Profiles),
		Cart:      cart.New(st),
		cartReady: make(chan struct{}),
		ready:     make(chan struct{}),
	}

	l := logging.FromContext(ctx)
	initCtx := logging.IntoContext(r.ctx, l)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(ws.ready)

		if err := ws.Cart.Load(initCtx); err != nil {
			l.Warn("cart_restore_failed", "error", err)
		}
		close(ws.cartReady)

		ws.Session.Initialize(initCtx)
	}()
	return ws
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

// Evict drops workspaces not acquired for idle. Their state is persisted, so a later Acquire
// rebuilds them. Workspaces still initializing are kept.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, ws := range r.spaces {
		if ws.lastSeen.Before(cutoff) && ws.settled() {
			delete(r.spaces, sid)
			n++
		}
	}
	return n
}

// StartJanitor evicts idle workspaces every interval until ctx ends or Close.
func (r *Registry) StartJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	l := logging.FromContext(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Evict(idle); n > 0 {
					l.Debug("workspaces_evicted", "count", n, "remaining", r.Len())
				}
			}
		}
	}()
}

// Close cancels pending initializations, stops the janitor and waits for both.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
