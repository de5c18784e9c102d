package middleware

// identity.go defines helpers shared across middleware files and handlers.
// Sessions.Load and Sessions.Start store the authenticated *model.User in
// the Echo context; CurrentUser reads it back.  Anonymous requests have no
// user.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-review/internal/model"
)

const userKey = "user"

// CurrentUser returns the logged-in user or nil for anonymous requests.
func CurrentUser(c echo.Context) *model.User {
    u, _ := c.Get(userKey).(*model.User)
    return u
}

func setCurrentUser(c echo.Context, u *model.User) {
    c.Set(userKey, u)
}

// userID returns the current user id as a string, or "guest" when no user
// is authenticated.  It is used to build rate limit keys.
func userID(c echo.Context) string {
    if u := CurrentUser(c); u != nil {
        return strconv.FormatUint(u.ID, 10)
    }
    return "guest"
}
