package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/workspace"
)

const AdminHomePath = "/admin/dashboard"

type AuthAPI interface {
	Authenticate(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

type AuthHTTP struct {
	API    AuthAPI
	Events events.Publisher
}

type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	Admin         bool         `json:"admin"`
	Loading       bool         `json:"loading"`
	User          *models.User `json:"user"`
	CartCount     int          `json:"cartCount"`
	CSRFToken     string       `json:"csrfToken,omitempty"`
}

func viewOf(ws *workspace.Workspace) sessionView {
	st := ws.Session.State()
	return sessionView{
		Authenticated: st.IsAuthenticated(),
		Admin:         st.IsAdmin(),
		Loading:       st.Loading,
		User:          st.User,
		CartCount:     ws.Cart.TotalItems(),
	}
}

// LandingPath is where a freshly logged in user is sent.
func LandingPath(role string) string {
	if models.Role(role) == models.RoleAdmin {
		return AdminHomePath
	}
	return "/"
}

func (h *AuthHTTP) Session(c echo.Context) error {
	v := viewOf(workspaceOf(c))
	v.CSRFToken, _ = c.Get(csrfContextKey).(string)
	return c.JSON(http.StatusOK, v)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")
	ws := workspaceOf(c)

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" || req.Password == "" {
		l.Warn("login_error", "status", 400, "reason", "missing credentials")
		return echo.NewHTTPError(http.StatusBadRequest, "userName and password required")
	}

	res, err := h.API.Authenticate(ctx, req)
	if err != nil {
		code := http.StatusUnauthorized
		if errors.Is(err, apiclient.ErrUnavailable) {
			code = http.StatusBadGateway
		}
		l.Warn("login_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, "Invalid credentials")
	}

	if err := ws.Session.Login(ctx, res); err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, session.ErrValidation) {
			code = http.StatusUnauthorized
		}
		l.Error("login_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, "Invalid credentials")
	}

	h.publish(c, res.ID, map[string]any{"type": "user_logged_in", "userID": res.ID, "role": res.Role})
	l.Info("login_successful", "user_id", res.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"redirect": LandingPath(res.Role),
		"session":  viewOf(ws),
	})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		FullName    string `json:"fullName"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	userName := UserNameFromEmail(req.Email)
	if userName == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		l.Warn("register_error", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "fullName, email and password required")
	}

	user, err := h.API.Register(ctx, models.RegisterRequest{
		UserName:    userName,
		Password:    req.Password,
		FullName:    strings.TrimSpace(req.FullName),
		Email:       strings.TrimSpace(req.Email),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, apiclient.ErrUnavailable) {
			code = http.StatusBadGateway
		}
		l.Warn("register_failed", "status", code, "error", err)
		return echo.NewHTTPError(code, "Registration failed. Try again.")
	}

	h.publish(c, user.ID, map[string]any{"type": "user_registered", "userID": user.ID, "userName": userName})
	l.Info("register_successful", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"userName": userName,
		"redirect": "/login",
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")
	ws := workspaceOf(c)

	var userID string
	if u := ws.Session.User(); u != nil {
		userID = u.ID
	}
	ws.Session.Logout(ctx)

	if userID != "" {
		h.publish(c, userID, map[string]any{"type": "user_logged_out", "userID": userID})
	}
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"redirect": "/login",
		"session":  viewOf(ws),
	})
}

// UserNameFromEmail derives the account name from the local part of an email address.
func UserNameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (h *AuthHTTP) publish(c echo.Context, key string, event map[string]any) {
	publish(c, h.Events, events.TopicUser, key, event)
}

func publish(c echo.Context, p events.Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx := c.Request().Context()
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
