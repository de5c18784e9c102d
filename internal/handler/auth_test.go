package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-review/internal/config"
	"github.com/iliyamo/movie-review/internal/database/dbtest"
	"github.com/iliyamo/movie-review/internal/middleware"
	"github.com/iliyamo/movie-review/internal/repository"
)

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) error {
	p.n++
	return nil
}

func TestUpdateProfile_PurgesPageCache(t *testing.T) {
	db := dbtest.Open(t)
	users := repository.NewUserRepo(db)
	sessions := &middleware.Sessions{Secret: "test-secret", TTL: time.Hour, Store: repository.NewSessionRepo(db), Users: users}
	purger := &countingPurger{}
	h := NewAuthHandler(config.AuthConfig{BcryptCost: bcrypt.MinCost}, users, repository.NewProfileRepo(db), sessions, nil, purger)

	alice, _, err := users.CreateWithProfile(context.Background(),
		repository.NewUser{Username: "alice", Email: "a@example.com", Password: "pw-alice"}, bcrypt.MinCost)
	require.NoError(t, err)

	form := url.Values{"username": {"alicia"}, "email": {"a@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/profile/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, sessions.Start(c, &alice))

	require.NoError(t, h.UpdateProfile(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, purger.n)

	// listing pages show this name as the movie owner
	u, err := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", u.Username)
}
