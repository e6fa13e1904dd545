package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/car-marketplace/internal/metrics"
	"github.com/iliyamo/car-marketplace/internal/middleware"
	"github.com/iliyamo/car-marketplace/internal/service"
	"github.com/iliyamo/car-marketplace/internal/session"
)

// AuthHandler serves login, registration, logout and the profile pages.
type AuthHandler struct {
	Auth     *service.AuthService
	Sessions *session.Manager
	Events   service.EventPublisher
}

func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, events service.EventPublisher) *AuthHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &AuthHandler{Auth: auth, Sessions: sessions, Events: events}
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// bindCredentials decodes a JSON or form body. Non-string values fail the
// JSON decode and come back as ErrInvalidType.
func bindCredentials(c echo.Context) (credentials, error) {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return req, ErrInvalidType
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return req, ErrMissingField
	}
	return req, nil
}

func validationMessage(err error) string {
	if errors.Is(err, ErrInvalidType) {
		return "username and password must be strings"
	}
	return "username and password are required"
}

// LoginPage renders the login form. ?deleted=1 shows the account-deleted notice.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	p := page(c, "Log in")
	if c.QueryParam("deleted") == "1" {
		p.Message = "Your account has been deleted."
	}
	return c.Render(http.StatusOK, "login", p)
}

// LoginInvalidRequest renders the login form with the sign-in prompt.
func (h *AuthHandler) LoginInvalidRequest(c echo.Context) error {
	p := page(c, "Log in")
	p.Error, p.Message = true, "You must be signed in to view listings"
	return c.Render(http.StatusOK, "login", p)
}

// LoginFailed renders the login form with the bad-credentials message.
func (h *AuthHandler) LoginFailed(c echo.Context) error {
	p := page(c, "Log in")
	p.Error, p.Message = true, "Incorrect username or password"
	return c.Render(http.StatusOK, "login", p)
}

// Login verifies credentials and starts a session. Browsers are sent to /
// with 303; JSON clients get 200 and the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "login", "Log in", validationMessage(err))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		metrics.Logins.WithLabelValues("unknown_user").Inc()
		return fail(c, http.StatusUnauthorized, "login", "Log in", "Incorrect username or password")
	case errors.Is(err, service.ErrPasswordMismatch):
		metrics.Logins.WithLabelValues("bad_password").Inc()
		return fail(c, http.StatusUnauthorized, "login", "Log in", "Incorrect username or password")
	case err != nil:
		metrics.Logins.WithLabelValues("error").Inc()
		log.Printf("auth: login lookup failed: %v", err)
		return fail(c, http.StatusInternalServerError, "login", "Log in", "login failed, please try again")
	}

	if err := h.Sessions.Start(c.Response(), c.Request(), u.Username); err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		log.Printf("auth: start session failed: %v", err)
		return fail(c, http.StatusInternalServerError, "login", "Log in", "login failed, please try again")
	}
	metrics.Logins.WithLabelValues("ok").Inc()

	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"status": "success", "username": u.Username})
	}
	return seeOther(c, "/")
}

func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, "register", page(c, "Register"))
}

// Register creates an account. It answers 201 on success and 400 for a
// duplicate username, a non-string field or a missing field.
func (h *AuthHandler) Register(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "register", "Register", validationMessage(err))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Auth.Register(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			return fail(c, http.StatusBadRequest, "register", "Register", "username already taken")
		}
		log.Printf("auth: register %q failed: %v", req.Username, err)
		return fail(c, http.StatusInternalServerError, "register", "Register", "could not create account")
	}

	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, echo.Map{"status": "success", "message": "user created"})
	}
	p := page(c, "Register")
	p.Created, p.Message = true, "Account created."
	return c.Render(http.StatusCreated, "register", p)
}

// Logout destroys the session and renders the logout page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Sessions.Destroy(c.Response(), c.Request()); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return Unauthorized(c)
		}
		log.Printf("auth: destroy session failed: %v", err)
	}
	return c.Render(http.StatusOK, "logout", Page{Title: "Logged out"})
}

// username is only called behind RequireUser.
func username(c echo.Context) string {
	u, _ := middleware.Username(c)
	return u
}
