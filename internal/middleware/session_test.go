package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-review/internal/database/dbtest"
	"github.com/iliyamo/movie-review/internal/model"
	"github.com/iliyamo/movie-review/internal/repository"
	"github.com/iliyamo/movie-review/internal/utils"
)

type sessionFixture struct {
	sessions *Sessions
	users    *repository.UserRepo
	store    *repository.SessionRepo
	alice    model.User
}

func setupSessions(t *testing.T) sessionFixture {
	t.Helper()
	db := dbtest.Open(t)
	users := repository.NewUserRepo(db)
	store := repository.NewSessionRepo(db)
	alice, _, err := users.CreateWithProfile(context.Background(),
		repository.NewUser{Username: "alice", Email: "a@x.com", Password: "pw123"}, bcrypt.MinCost)
	require.NoError(t, err)
	return sessionFixture{
		sessions: &Sessions{Secret: "test-secret", TTL: time.Hour, Store: store, Users: users},
		users:    users,
		store:    store,
		alice:    alice,
	}
}

// whoAmI is a handler echoing the current user name.
func whoAmI(c echo.Context) error {
	if u := CurrentUser(c); u != nil {
		return c.String(http.StatusOK, u.Username)
	}
	return c.String(http.StatusOK, "anonymous")
}

func startSession(t *testing.T, f sessionFixture) *http.Cookie {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login/", nil), rec)
	require.NoError(t, f.sessions.Start(c, &f.alice))
	assert.Equal(t, "alice", CurrentUser(c).Username)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, SessionCookie, ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	return ck
}

func serve(f sessionFixture, req *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(f.sessions.Load())
	e.GET("/whoami", whoAmI)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessions_LoadFromCookie(t *testing.T) {
	f := setupSessions(t)
	ck := startSession(t, f)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(ck)
	assert.Equal(t, "alice", serve(f, req).Body.String())
}

func TestSessions_LoadFromBearer(t *testing.T) {
	f := setupSessions(t)
	ck := startSession(t, f)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+ck.Value)
	assert.Equal(t, "alice", serve(f, req).Body.String())
}

func TestSessions_Anonymous(t *testing.T) {
	f := setupSessions(t)

	rec := serve(f, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	rec = serve(f, req)
	assert.Equal(t, "anonymous", rec.Body.String())
	// the bad cookie is cleared
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestSessions_TokenWithoutStoredSession(t *testing.T) {
	f := setupSessions(t)
	tok, err := utils.NewSessionToken("test-secret", f.alice.ID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok.Token})
	assert.Equal(t, "anonymous", serve(f, req).Body.String())
}

func TestSessions_End(t *testing.T) {
	f := setupSessions(t)
	ck := startSession(t, f)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/logout/", nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	require.NoError(t, f.sessions.End(e.NewContext(req, rec)))
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

	// the old cookie no longer authenticates
	again := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	again.AddCookie(ck)
	assert.Equal(t, "anonymous", serve(f, again).Body.String())
}

func TestSessions_InactiveUser(t *testing.T) {
	f := setupSessions(t)
	ck := startSession(t, f)
	_, err := f.users.DB.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, f.alice.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(ck)
	assert.Equal(t, "anonymous", serve(f, req).Body.String())
}

func TestRequireLogin(t *testing.T) {
	e := echo.New()
	e.GET("/add_movie/", whoAmI, RequireLogin())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/add_movie/?x=1", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/?next=%2Fadd_movie%2F%3Fx%3D1", rec.Header().Get(echo.HeaderLocation))

	// with a user the handler runs
	e2 := echo.New()
	e2.GET("/add_movie/", whoAmI, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setCurrentUser(c, &model.User{ID: 1, Username: "bob"})
			return next(c)
		}
	}, RequireLogin())
	rec = httptest.NewRecorder()
	e2.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/add_movie/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", rec.Body.String())
}
