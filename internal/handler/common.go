package handler // handler holds the HTTP handlers of the site

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review/internal/logger"
	"github.com/iliyamo/movie-review/internal/middleware"
	"github.com/iliyamo/movie-review/internal/repository"
	"github.com/iliyamo/movie-review/internal/validate"
	"github.com/iliyamo/movie-review/internal/view"
)

// dbTimeout bounds every database round trip made by a handler.
const dbTimeout = 5 * time.Second

// CachePurger drops cached pages after the movie catalog changed.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// purgePages drops cached pages; a failure only leaves them stale until
// they expire.
func purgePages(ctx context.Context, p CachePurger) {
	if p == nil {
		return
	}
	if err := p.Purge(ctx); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("page cache purge failed")
	}
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// render writes page with the common fields filled in: the current user,
// the pending flash message and a non-nil error map.
func render(c echo.Context, status int, page string, p view.Page) error {
	p.User = middleware.CurrentUser(c)
	p.Flash = popFlash(c)
	if p.Errors == nil {
		p.Errors = validate.Errors{}
	}
	return c.Render(status, page, p)
}

// setFlash stores a one-shot message shown on the next rendered page.
func setFlash(c echo.Context, msg string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.FlashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message and clears its cookie.
func popFlash(c echo.Context) string {
	ck, err := c.Cookie(middleware.FlashCookie)
	if err != nil || ck.Value == "" {
		return ""
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.FlashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	msg, err := url.QueryUnescape(ck.Value)
	if err != nil {
		return ""
	}
	return msg
}

// parseID reads the :id path parameter.  Unknown or malformed ids are a
// 404, like any other missing page.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Movie not found.")
	}
	return id, nil
}

// safeNext only follows local paths so the login form cannot be used as an
// open redirect.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/movie_list/"
	}
	return next
}

// movieError maps repository sentinels to HTTP errors.  forbidden is the
// message shown when the caller does not own the movie.
func movieError(err error, forbidden string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Movie not found.")
	case errors.Is(err, repository.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, forbidden)
	}
	return err
}

// fieldErrors unwraps form validation errors; any other error yields nil.
func fieldErrors(err error) validate.Errors {
	var errs validate.Errors
	if errors.As(err, &errs) {
		return errs
	}
	return nil
}

// HTTPErrorHandler renders HTTP errors with the error page.  Internal
// errors never expose their message.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "Something went wrong. Please try again later."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			msg = m
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	page := view.Page{Title: http.StatusText(code), Data: view.ErrorData{Code: code, Message: msg}}
	if rerr := render(c, code, "error", page); rerr != nil {
		_ = c.String(code, msg)
	}
}
