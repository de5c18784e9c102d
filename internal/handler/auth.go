package handler

import (
    "context"  // context for the notification timeout
    "errors"   // errors.Is on repository sentinels
    "net/http" // HTTP status codes
    "time"     // registration timestamp

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/movie-review/internal/config"     // app configuration
    "github.com/iliyamo/movie-review/internal/logger"     // request scoped logger
    "github.com/iliyamo/movie-review/internal/middleware" // session handling
    "github.com/iliyamo/movie-review/internal/model"      // domain types
    "github.com/iliyamo/movie-review/internal/queue"      // notification events
    "github.com/iliyamo/movie-review/internal/repository" // DB repositories
    "github.com/iliyamo/movie-review/internal/service"    // registration notifier
    "github.com/iliyamo/movie-review/internal/utils"      // password helpers
    "github.com/iliyamo/movie-review/internal/validate"   // form validation
    "github.com/iliyamo/movie-review/internal/view"       // page data
)

const (
    msgRegistered         = "You have successfully registered!"
    msgInvalidCredentials = "Invalid credentials"
    msgUsernameTaken      = "A user with that username already exists."
    msgProfileUpdated     = "Your profile has been updated."
)

// AuthHandler bundles dependencies for the account pages.
type AuthHandler struct {
    Cfg      config.AuthConfig
    Users    *repository.UserRepo
    Profiles *repository.ProfileRepo
    Sessions *middleware.Sessions
    Notifier service.Notifier
    Cache    CachePurger // listing pages show owner names; nil when caching is off
}

func NewAuthHandler(cfg config.AuthConfig, u *repository.UserRepo, p *repository.ProfileRepo, s *middleware.Sessions, n service.Notifier, cache CachePurger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Profiles: p, Sessions: s, Notifier: n, Cache: cache}
}

// RegisterPage shows the empty sign-up form.
func (h *AuthHandler) RegisterPage(c echo.Context) error {
    return render(c, http.StatusOK, "register", view.Page{Title: "Register", Form: &validate.RegisterForm{}})
}

// Register: create the user and its profile, log them in and announce the
// registration.
func (h *AuthHandler) Register(c echo.Context) error {
    var form validate.RegisterForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
    }
    page := view.Page{Title: "Register", Form: &form}
    if err := form.Validate(); err != nil {
        page.Errors = fieldErrors(err)
        return render(c, http.StatusUnprocessableEntity, "register", page)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    u, _, err := h.Users.CreateWithProfile(ctx, repository.NewUser{
        Username:  form.Username,
        Email:     form.Email,
        Password:  form.Password,
        FirstName: form.FirstName,
        LastName:  form.LastName,
    }, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrUsernameTaken) {
            page.Errors = validate.Errors{"username": msgUsernameTaken}
            return render(c, http.StatusUnprocessableEntity, "register", page)
        }
        return err
    }

    if err := h.Sessions.Start(c, &u); err != nil {
        return err
    }
    h.notifyRegistered(c.Request().Context(), u)

    setFlash(c, msgRegistered)
    return c.Redirect(http.StatusSeeOther, "/movie_list/")
}

// notifyRegistered publishes the registration event.  The account already
// exists at this point, so a failure is only logged.
func (h *AuthHandler) notifyRegistered(ctx context.Context, u model.User) {
    if h.Notifier == nil {
        return
    }
    ctx, cancel := context.WithTimeout(ctx, dbTimeout)
    defer cancel()
    ev := queue.UserRegisteredEvent{
        UserID:       u.ID,
        Username:     u.Username,
        Email:        u.Email,
        RegisteredAt: time.Now().UTC().Format(time.RFC3339),
    }
    if err := h.Notifier.NotifyUserRegistered(ctx, ev); err != nil {
        logger.FromContext(ctx).Warn().Err(err).Uint64("user_id", u.ID).Msg("registration notification failed")
    }
}

// LoginPage shows the login form, remembering where to go afterwards.
func (h *AuthHandler) LoginPage(c echo.Context) error {
    form := &validate.LoginForm{Next: c.QueryParam("next")}
    return render(c, http.StatusOK, "login", view.Page{Title: "Log in", Form: form})
}

// Login: verify the credentials and start a session.
func (h *AuthHandler) Login(c echo.Context) error {
    var form validate.LoginForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
    }
    if form.Next == "" {
        form.Next = c.QueryParam("next")
    }
    verr := form.Validate()
    // the password is never echoed back
    page := view.Page{Title: "Log in", Form: &validate.LoginForm{Username: form.Username, Next: form.Next}}
    if verr != nil {
        page.Errors = fieldErrors(verr)
        return render(c, http.StatusUnprocessableEntity, "login", page)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    u, err := h.Users.GetByUsername(ctx, form.Username)
    if err != nil {
        if !errors.Is(err, repository.ErrNotFound) {
            return err
        }
        // keep the response time of unknown users close to a real check
        utils.BurnPasswordCheck(form.Password)
        page.Errors = validate.Errors{validate.NonField: msgInvalidCredentials}
        return render(c, http.StatusUnauthorized, "login", page)
    }
    if !utils.VerifyPassword(u.PasswordHash, form.Password) || !u.IsActive {
        page.Errors = validate.Errors{validate.NonField: msgInvalidCredentials}
        return render(c, http.StatusUnauthorized, "login", page)
    }

    if err := h.Sessions.Start(c, u); err != nil {
        return err
    }
    return c.Redirect(http.StatusSeeOther, safeNext(form.Next))
}

// Logout ends the session; both GET and POST are accepted.
func (h *AuthHandler) Logout(c echo.Context) error {
    if err := h.Sessions.End(c); err != nil {
        return err
    }
    return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

// ProfilePage shows the profile form pre-filled with the current values.
func (h *AuthHandler) ProfilePage(c echo.Context) error {
    u := middleware.CurrentUser(c)

    ctx, cancel := dbContext(c)
    defer cancel()

    p, err := h.Profiles.GetOrCreate(ctx, u)
    if err != nil {
        return err
    }
    form := &validate.ProfileForm{
        Username:  u.Username,
        Email:     u.Email,
        FirstName: p.FirstName,
        LastName:  p.LastName,
    }
    return render(c, http.StatusOK, "profile", view.Page{Title: "Profile", Form: form})
}

// UpdateProfile saves the account and profile fields.  An empty password
// keeps the current one; a new one ends all other sessions.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
    u := middleware.CurrentUser(c)

    var form validate.ProfileForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
    }
    page := view.Page{Title: "Profile", Form: &form}
    if err := form.Validate(); err != nil {
        page.Errors = fieldErrors(err)
        form.Password = ""
        return render(c, http.StatusUnprocessableEntity, "profile", page)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    taken, err := h.Users.UsernameTaken(ctx, form.Username, u.ID)
    if err != nil {
        return err
    }
    if taken {
        page.Errors = validate.Errors{"username": msgUsernameTaken}
        form.Password = ""
        return render(c, http.StatusUnprocessableEntity, "profile", page)
    }

    err = h.Users.UpdateWithProfile(ctx, repository.UserUpdate{
        ID:        u.ID,
        Username:  form.Username,
        Email:     form.Email,
        Password:  form.Password,
        FirstName: form.FirstName,
        LastName:  form.LastName,
    }, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrUsernameTaken) {
            page.Errors = validate.Errors{"username": msgUsernameTaken}
            form.Password = ""
            return render(c, http.StatusUnprocessableEntity, "profile", page)
        }
        return err
    }
    purgePages(ctx, h.Cache)

    // a new password signs out every other device
    if form.Password != "" {
        updated, err := h.Users.GetByID(ctx, u.ID)
        if err != nil {
            return err
        }
        if err := h.Sessions.Restart(c, updated); err != nil {
            return err
        }
    }

    setFlash(c, msgProfileUpdated)
    return c.Redirect(http.StatusSeeOther, "/profile/")
}
