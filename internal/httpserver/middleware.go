package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/storefront/internal/guard"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/workspace"
)

const (
	SessionCookie = "sid"
	sessionMaxAge = 30 * 24 * time.Hour
	workspaceKey  = "workspace"
	retryAfter    = 1
)

func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", c.Request().Method,
				"path", c.Path(),
				"url", c.Request().URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}

			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := next(c)
			dur := time.Since(start)

			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			status := c.Response().Status

			switch {
			case err != nil || status >= 500:
				l.Error("request completed", "status", status, "duration_ms", dur.Milliseconds(), "error", errStr(err))
			case status >= 400:
				l.Warn("request completed", "status", status, "duration_ms", dur.Milliseconds())
			default:
				l.Info("request completed", "status", status, "duration_ms", dur.Milliseconds(), "bytes", c.Response().Size)
			}
			return nil
		}
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}

// Workspaces resolves the sid cookie to the client's workspace, issuing a new id when the
// cookie is missing or malformed.
func Workspaces(reg *workspace.Registry, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(SessionCookie); err == nil && workspace.ValidID(ck.Value) {
				sid = ck.Value
			} else {
				sid = workspace.NewID()
			}
			c.SetCookie(&http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(sessionMaxAge.Seconds()),
			})

			ctx := c.Request().Context()
			ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("sid", sid))
			c.SetRequest(c.Request().WithContext(ctx))

			ws, err := reg.Acquire(ctx, sid)
			if err != nil {
				if errors.Is(err, workspace.ErrClosed) {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
				}
				if ctx.Err() != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			c.Set(workspaceKey, ws)
			return next(c)
		}
	}
}

func workspaceOf(c echo.Context) *workspace.Workspace {
	ws, _ := c.Get(workspaceKey).(*workspace.Workspace)
	return ws
}

// Require answers with the guard's decision for req and only calls next on Allow.
func Require(req guard.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ws := workspaceOf(c)
			if ws == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "no workspace")
			}

			d := guard.Decide(ws.Session.State(), req)
			switch d {
			case guard.Allow:
				return next(c)
			case guard.Loading:
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "loading"})
			}

			logging.FromContext(c.Request().Context()).Info("access_denied", "requirement", req.String(), "decision", d.String())
			c.Response().Header().Set(echo.HeaderLocation, d.Destination())
			code := http.StatusUnauthorized
			if d == guard.RedirectHome {
				code = http.StatusForbidden
			}
			return c.JSON(code, echo.Map{"redirect": d.Destination()})
		}
	}
}

// LoginLimiter throttles login attempts per client address to perMinute. Limiters that have
// refilled are pruned, so idle addresses do not accumulate.
type LoginLimiter struct {
	perMinute int
	now       func() time.Time

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastPrune time.Time
}

func NewLoginLimiter(perMinute int) *LoginLimiter {
	return &LoginLimiter{perMinute: perMinute, now: time.Now, limiters: make(map[string]*rate.Limiter)}
}

func (ll *LoginLimiter) Allow(key string) bool {
	if ll == nil || ll.perMinute <= 0 {
		return true
	}
	now := ll.now()

	ll.mu.Lock()
	if now.Sub(ll.lastPrune) >= time.Minute {
		ll.pruneLocked(now)
	}
	lim, ok := ll.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ll.perMinute)), ll.perMinute)
		ll.limiters[key] = lim
	}
	ll.mu.Unlock()
	return lim.AllowN(now, 1)
}

// pruneLocked drops limiters back at full burst; a fresh limiter behaves the same.
func (ll *LoginLimiter) pruneLocked(now time.Time) {
	for key, lim := range ll.limiters {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(ll.limiters, key)
		}
	}
	ll.lastPrune = now
}

func (ll *LoginLimiter) Len() int {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return len(ll.limiters)
}

// Middleware keys attempts by client address. The sid cookie is client-chosen, so it is not used.
func (ll *LoginLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !ll.Allow(c.RealIP()) {
			logging.FromContext(c.Request().Context()).Warn("login_throttled", "status", 429)
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		}
		return next(c)
	}
}
