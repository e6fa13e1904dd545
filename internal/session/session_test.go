package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() (*Manager, *MemoryStore) {
	st := NewMemoryStore()
	return NewManager(st, Options{Secret: "test-secret", TTL: time.Hour}), st
}

// withCookies copies the Set-Cookie headers of rec onto a new request.
func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestMemoryStoreExpiry(t *testing.T) {
	st := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, "a", Data{Username: "u"}, time.Minute))
	d, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u", d.Username)

	now = now.Add(2 * time.Minute)
	_, err = st.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, st.Len())
}

func TestManagerLifecycle(t *testing.T) {
	m, st := newTestManager()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "alice"))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.True(t, rec.Result().Cookies()[0].HttpOnly)

	req := withCookies(rec)
	user, ok := m.Current(req)
	require.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, 1, st.Len())

	out := httptest.NewRecorder()
	require.NoError(t, m.Destroy(out, req))
	assert.Equal(t, -1, out.Result().Cookies()[0].MaxAge)
	_, ok = m.Current(req)
	assert.False(t, ok)

	assert.ErrorIs(t, m.Destroy(httptest.NewRecorder(), req), ErrNotAuthenticated)
}

func TestManagerRejectsForgedCookie(t *testing.T) {
	m, _ := newTestManager()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: "alice"})

	_, ok := m.Current(req)
	assert.False(t, ok)
	assert.ErrorIs(t, m.Destroy(httptest.NewRecorder(), req), ErrNotAuthenticated)
}

func TestManagerStartReplacesOldSession(t *testing.T) {
	m, st := newTestManager()

	first := httptest.NewRecorder()
	require.NoError(t, m.Start(first, httptest.NewRequest(http.MethodPost, "/login", nil), "alice"))

	second := httptest.NewRecorder()
	require.NoError(t, m.Start(second, withCookies(first), "bob"))
	assert.Equal(t, 1, st.Len())

	_, ok := m.Current(withCookies(first))
	assert.False(t, ok)
	user, ok := m.Current(withCookies(second))
	require.True(t, ok)
	assert.Equal(t, "bob", user)
}

func TestSessionsAreIndependent(t *testing.T) {
	m, _ := newTestManager()

	a := httptest.NewRecorder()
	b := httptest.NewRecorder()
	require.NoError(t, m.Start(a, httptest.NewRequest(http.MethodPost, "/login", nil), "alice"))
	require.NoError(t, m.Start(b, httptest.NewRequest(http.MethodPost, "/login", nil), "bob"))

	ua, _ := m.Current(withCookies(a))
	ub, _ := m.Current(withCookies(b))
	assert.Equal(t, "alice", ua)
	assert.Equal(t, "bob", ub)
}
