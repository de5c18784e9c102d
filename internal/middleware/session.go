package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "errors"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-review/internal/logger"
    "github.com/iliyamo/movie-review/internal/model"
    "github.com/iliyamo/movie-review/internal/repository"
    "github.com/iliyamo/movie-review/internal/utils"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// LoginPath is where RequireLogin sends anonymous visitors.
const LoginPath = "/login/"

// SessionStore persists hashed session ids.
type SessionStore interface {
    Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    Validate(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserLoader loads the account a session belongs to.
type UserLoader interface {
    GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// Sessions issues, resolves and ends login sessions.  A session is a signed
// token in an HttpOnly cookie whose id must also be present (and not
// revoked) in the session store, so logout takes effect immediately.
type Sessions struct {
    Secret string
    TTL    time.Duration
    Secure bool
    Store  SessionStore
    Users  UserLoader
}

// Load returns an Echo middleware that resolves the session token of every
// request and stores the user in the context.  Requests without a valid
// session continue anonymously.  The token is read from the session cookie
// or, failing that, from an "Authorization: Bearer" header.
func (s *Sessions) Load() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := tokenFrom(c)
            if raw == "" {
                return next(c)
            }
            u, err := s.resolve(c.Request().Context(), raw)
            if err != nil {
                if !errors.Is(err, utils.ErrInvalidSession) && !errors.Is(err, repository.ErrNotFound) {
                    logger.FromContext(c.Request().Context()).Error().Err(err).Msg("session lookup failed")
                }
                // drop a cookie that can never become valid again
                if _, cerr := c.Cookie(SessionCookie); cerr == nil {
                    s.clearCookie(c)
                }
                return next(c)
            }
            setCurrentUser(c, u)
            return next(c)
        }
    }
}

func (s *Sessions) resolve(ctx context.Context, raw string) (*model.User, error) {
    claims, err := utils.ParseSessionToken(s.Secret, raw)
    if err != nil {
        return nil, err
    }
    uid, err := s.Store.Validate(ctx, utils.HashTokenID(claims.ID))
    if err != nil {
        return nil, err
    }
    if uid != claims.UserID {
        return nil, utils.ErrInvalidSession
    }
    u, err := s.Users.GetByID(ctx, uid)
    if err != nil {
        return nil, err
    }
    if !u.IsActive {
        return nil, utils.ErrInvalidSession
    }
    return u, nil
}

// Start opens a new session for u and sets the session cookie.
func (s *Sessions) Start(c echo.Context, u *model.User) error {
    tok, err := utils.NewSessionToken(s.Secret, u.ID, s.TTL)
    if err != nil {
        return err
    }
    if err := s.Store.Store(c.Request().Context(), u.ID, utils.HashTokenID(tok.ID), tok.Exp); err != nil {
        return err
    }
    c.SetCookie(&http.Cookie{
        Name:     SessionCookie,
        Value:    tok.Token,
        Path:     "/",
        Expires:  tok.Exp,
        HttpOnly: true,
        Secure:   s.Secure,
        SameSite: http.SameSiteLaxMode,
    })
    setCurrentUser(c, u)
    return nil
}

// Restart revokes every session of u, on any device, and opens a fresh one
// for the current client.  Used after a password change.
func (s *Sessions) Restart(c echo.Context, u *model.User) error {
    if err := s.Store.RevokeAllForUser(c.Request().Context(), u.ID); err != nil {
        return err
    }
    return s.Start(c, u)
}

// End revokes the current session (if any) and clears the cookie.
func (s *Sessions) End(c echo.Context) error {
    defer s.clearCookie(c)
    raw := tokenFrom(c)
    if raw == "" {
        return nil
    }
    claims, err := utils.ParseSessionToken(s.Secret, raw)
    if err != nil {
        return nil
    }
    return s.Store.RevokeByHash(c.Request().Context(), utils.HashTokenID(claims.ID))
}

func (s *Sessions) clearCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     SessionCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        Expires:  time.Unix(0, 0),
        HttpOnly: true,
        Secure:   s.Secure,
        SameSite: http.SameSiteLaxMode,
    })
}

func tokenFrom(c echo.Context) string {
    if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
        return ck.Value
    }
    auth := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    return ""
}

// RequireLogin redirects anonymous visitors to the login page, carrying the
// requested path in the "next" query parameter.  It must run after Load.
func RequireLogin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if CurrentUser(c) != nil {
                return next(c)
            }
            target := LoginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
            return c.Redirect(http.StatusSeeOther, target)
        }
    }
}
