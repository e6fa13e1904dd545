package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/car-marketplace/internal/handler"
	"github.com/iliyamo/car-marketplace/internal/model"
	"github.com/iliyamo/car-marketplace/internal/queue"
	"github.com/iliyamo/car-marketplace/internal/repository"
	"github.com/iliyamo/car-marketplace/internal/service"
	"github.com/iliyamo/car-marketplace/internal/session"
	"github.com/iliyamo/car-marketplace/internal/testkit"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ListingEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.ListingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testApp struct {
	e      *echo.Echo
	events *recordingPublisher
	cars   *repository.CarRepo
}

func newTestApp(t *testing.T, testHooks bool) *testApp {
	t.Helper()
	db := testkit.NewDB(t)
	auth := service.NewAuthService(repository.NewUserRepo(db), bcrypt.MinCost, false)
	sessions := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test-secret"})
	events := &recordingPublisher{}
	cars := repository.NewCarRepo(db)

	e, err := New(Deps{
		Auth:      handler.NewAuthHandler(auth, sessions, events),
		Market:    handler.NewMarketHandler(cars, repository.NewCartRepo(db), events),
		Users:     auth,
		Sessions:  sessions,
		TestHooks: testHooks,
	})
	require.NoError(t, err)
	return &testApp{e: e, events: events, cars: cars}
}

func (a *testApp) serve(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postJSON(path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.serve(req, cookies)
}

func (a *testApp) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return a.serve(req, cookies)
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return a.serve(httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func (a *testApp) getJSON(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	return a.serve(req, cookies)
}

// signUp registers and logs in through the form flow.
func (a *testApp) signUp(t *testing.T, user, pass string) []*http.Cookie {
	t.Helper()
	creds := url.Values{"username": {user}, "password": {pass}}
	require.Equal(t, http.StatusCreated, a.postForm("/register", creds).Code)
	rec := a.postForm("/login", creds)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decodeCars(t *testing.T, rec *httptest.ResponseRecorder) []model.Car {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cars []model.Car
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cars))
	return cars
}

func TestAccountScenario(t *testing.T) {
	app := newTestApp(t, true)

	rec := app.postJSON("/register", `{"username":"user","password":"1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.postJSON("/login", `{"username":"user","password":"1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = app.postJSON("/login", `{"username":"user","password":"wrong_password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = app.postJSON("/login", `{"username":"user1","password":"1234"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusOK, app.get("/profile", cookies...).Code)

	rec = app.postJSON("/deleteProfileTest", `{"username":"user"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.get("/profile", cookies...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "You must be signed in to view listings")
	assert.Contains(t, app.events.types(), queue.EventAccountDeleted)
}

func TestDeleteProfileTestUnknownUserPublishesNothing(t *testing.T) {
	app := newTestApp(t, true)

	rec := app.postJSON("/deleteProfileTest", `{"username":"nobody"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, app.events.types(), queue.EventAccountDeleted)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t, false)

	require.Equal(t, http.StatusCreated, app.postJSON("/register", `{"username":"user","password":"1234"}`).Code)

	cases := map[string]string{
		"duplicate":    `{"username":"user","password":"other"}`,
		"invalid type": `{"username":420,"password":1234}`,
		"wrong fields": `{"wrong_input":"user"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := app.postJSON("/register", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	// the duplicate attempt must not have replaced the original password
	assert.Equal(t, http.StatusOK, app.postJSON("/login", `{"username":"user","password":"1234"}`).Code)
}

func TestLoginFormFailureRendersLoginPage(t *testing.T) {
	app := newTestApp(t, false)
	rec := app.postForm("/login", url.Values{"username": {"nobody"}, "password": {"x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect username or password")
	assert.Empty(t, rec.Result().Cookies())
}

func TestGatedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t, false)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/home"},
		{http.MethodGet, "/logout"},
		{http.MethodGet, "/profile"},
		{http.MethodPost, "/profile/delete"},
		{http.MethodPost, "/profile/changePassword"},
		{http.MethodGet, "/buy"},
		{http.MethodPost, "/add-to-cart"},
		{http.MethodPost, "/remove-from-cart"},
		{http.MethodGet, "/cart"},
		{http.MethodGet, "/sell"},
		{http.MethodGet, "/sell/new"},
		{http.MethodPost, "/sell/new"},
		{http.MethodPost, "/sell/remove-listing"},
		{http.MethodGet, "/accessories"},
	}
	for _, r := range routes {
		rec := app.serve(httptest.NewRequest(r.method, r.path, nil), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
		assert.Contains(t, rec.Body.String(), "You must be signed in to view listings", "%s %s", r.method, r.path)
	}

	forged := &http.Cookie{Name: "car_session", Value: "user"}
	assert.Equal(t, http.StatusUnauthorized, app.get("/buy", forged).Code)
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp(t, false)

	rec := app.get("/welcome")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Welcome!", body["message"])

	assert.Equal(t, "ok", app.get("/healthz").Body.String())
	assert.Equal(t, http.StatusOK, app.get("/metrics").Code)
	assert.Contains(t, app.get("/login/failed").Body.String(), "Incorrect username or password")
	assert.Contains(t, app.get("/login/invalid_request").Body.String(), "You must be signed in to view listings")

	// test hook is not routed outside APP_ENV=test
	assert.Equal(t, http.StatusNotFound, app.postJSON("/deleteProfileTest", `{"username":"x"}`).Code)
}

func TestSellBuyCartFlow(t *testing.T) {
	app := newTestApp(t, false)
	alice := app.signUp(t, "alice", "pw")
	bob := app.signUp(t, "bob", "pw")

	rec := app.postForm("/sell/new", url.Values{
		"make": {"Honda"}, "model": {"Civic"}, "color": {"blue"},
		"price": {"9500"}, "miles": {"42000"}, "description": {"one owner"},
	}, alice...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sell", rec.Header().Get(echo.HeaderLocation))

	rec = app.postForm("/sell/new", url.Values{"make": {"Ford"}, "price": {"-1"}}, alice...)
	assert.Equal(t, "/sell/new?err=invalid", rec.Header().Get(echo.HeaderLocation))
	for _, p := range []string{"Inf", "NaN"} {
		rec = app.postForm("/sell/new", url.Values{"make": {"Ford"}, "model": {"Ka"}, "price": {p}}, alice...)
		assert.Equal(t, "/sell/new?err=invalid", rec.Header().Get(echo.HeaderLocation), p)
	}
	rec = app.postForm("/sell/new", url.Values{"make": {"Ford"}, "model": {"Ka"}, "price": {"1"}, "miles": {"3000000000"}}, alice...)
	assert.Equal(t, "/sell/new?err=invalid", rec.Header().Get(echo.HeaderLocation))

	mine := decodeCars(t, app.getJSON("/sell", alice...))
	require.Len(t, mine, 1)
	car := mine[0]
	assert.Equal(t, "alice", car.OwnerUsername)
	assert.Equal(t, int64(42000), car.Miles)
	assert.Empty(t, decodeCars(t, app.getJSON("/sell", bob...)))

	assert.Len(t, decodeCars(t, app.getJSON("/buy?q=civ", bob...)), 1)
	assert.Empty(t, decodeCars(t, app.getJSON("/buy?q=tesla", bob...)))
	assert.Contains(t, app.get("/buy", bob...).Body.String(), "Civic")

	id := url.Values{"car_id": {strconv.FormatUint(car.ID, 10)}}
	rec = app.postForm("/add-to-cart", id, bob...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/buy", rec.Header().Get(echo.HeaderLocation))
	require.Equal(t, http.StatusSeeOther, app.postForm("/add-to-cart", id, bob...).Code)
	assert.Len(t, decodeCars(t, app.getJSON("/cart", bob...)), 2)

	rec = app.postForm("/add-to-cart", url.Values{"car_id": {"999"}}, bob...)
	assert.Equal(t, "/buy?err=not_found", rec.Header().Get(echo.HeaderLocation))
	rec = app.postForm("/add-to-cart", url.Values{"car_id": {"abc"}}, bob...)
	assert.Equal(t, "/buy?err=invalid", rec.Header().Get(echo.HeaderLocation))

	rec = app.postForm("/sell/remove-listing", id, bob...)
	assert.Equal(t, "/sell?err=not_found", rec.Header().Get(echo.HeaderLocation))
	assert.Len(t, decodeCars(t, app.getJSON("/buy", bob...)), 1)

	rec = app.postForm("/sell/remove-listing", id, alice...)
	assert.Equal(t, "/sell", rec.Header().Get(echo.HeaderLocation))
	assert.Empty(t, decodeCars(t, app.getJSON("/cart", bob...)))

	rec = app.postForm("/remove-from-cart", id, bob...)
	assert.Equal(t, "/cart", rec.Header().Get(echo.HeaderLocation))

	assert.Equal(t, []string{queue.EventListingCreated, queue.EventListingRemoved}, app.events.types())
	app.events.mu.Lock()
	removed := app.events.events[1]
	app.events.mu.Unlock()
	assert.Equal(t, "Civic", removed.Model)
	assert.Equal(t, car.ID, removed.CarID)
}

func TestProfileFlow(t *testing.T) {
	app := newTestApp(t, false)
	cookies := app.signUp(t, "carol", "old")

	rec := app.postForm("/profile/changePassword", url.Values{}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.postForm("/profile/changePassword", url.Values{"password": {"new"}}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password updated.")

	assert.Equal(t, http.StatusUnauthorized, app.postJSON("/login", `{"username":"carol","password":"old"}`).Code)
	assert.Equal(t, http.StatusOK, app.postJSON("/login", `{"username":"carol","password":"new"}`).Code)

	assert.Equal(t, "/profile", app.get("/profile/delete", cookies...).Header().Get(echo.HeaderLocation))

	require.Equal(t, http.StatusSeeOther, app.postForm("/sell/new", url.Values{
		"make": {"Mazda"}, "model": {"3"}, "price": {"100"},
	}, cookies...).Code)

	rec = app.postForm("/profile/delete", url.Values{}, cookies...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?deleted=1", rec.Header().Get(echo.HeaderLocation))

	assert.Equal(t, http.StatusUnauthorized, app.get("/profile", cookies...).Code)
	assert.Equal(t, http.StatusUnauthorized, app.postJSON("/login", `{"username":"carol","password":"new"}`).Code)

	left, err := app.cars.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Contains(t, app.events.types(), queue.EventAccountDeleted)
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, false)
	cookies := app.signUp(t, "dave", "pw")

	require.Equal(t, http.StatusOK, app.get("/home", cookies...).Code)
	rec := app.get("/logout", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged out")
	assert.Equal(t, http.StatusUnauthorized, app.get("/home", cookies...).Code)
	assert.Equal(t, http.StatusUnauthorized, app.get("/logout", cookies...).Code)
}
