package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/car-marketplace/internal/utils"
)

// ErrNotAuthenticated is returned by Destroy when the request carries no
// valid session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Options configures the session cookie.
type Options struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
}

// Manager binds sessions to cookies.
type Manager struct {
	store Store
	opts  Options
}

// NewManager returns a Manager; zero option values get defaults.
func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "car_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{store: store, opts: opts}
}

// CookieName is the name of the session cookie.
func (m *Manager) CookieName() string { return m.opts.CookieName }

// Start creates a fresh session for username and sets the cookie. Any
// session the request already carried is discarded first so a login never
// reuses an id chosen before authentication.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, username string) error {
	if sid, ok := m.sessionID(r); ok {
		_ = m.store.Delete(r.Context(), sid)
	}
	sid := uuid.NewString()
	d := Data{Username: username, CreatedAt: time.Now().UTC()}
	if err := m.store.Save(r.Context(), sid, d, m.opts.TTL); err != nil {
		return err
	}
	token, err := utils.SignSessionToken(m.opts.Secret, sid, m.opts.TTL)
	if err != nil {
		return fmt.Errorf("session: sign: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Current returns the username bound to the request's session.
func (m *Manager) Current(r *http.Request) (string, bool) {
	sid, ok := m.sessionID(r)
	if !ok {
		return "", false
	}
	d, err := m.store.Get(r.Context(), sid)
	if err != nil || d.Username == "" {
		return "", false
	}
	return d.Username, true
}

// Destroy removes the request's session and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	sid, ok := m.sessionID(r)
	if !ok {
		return ErrNotAuthenticated
	}
	if _, err := m.store.Get(r.Context(), sid); err != nil {
		m.expireCookie(w)
		return ErrNotAuthenticated
	}
	if err := m.store.Delete(r.Context(), sid); err != nil {
		return err
	}
	m.expireCookie(w)
	return nil
}

func (m *Manager) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	sid, err := utils.ParseSessionToken(m.opts.Secret, c.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
