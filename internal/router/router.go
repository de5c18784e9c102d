package router // package router wires handlers, middleware and routes into an Echo instance

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-review/internal/config"
	"github.com/iliyamo/movie-review/internal/handler"
	"github.com/iliyamo/movie-review/internal/logger"
	"github.com/iliyamo/movie-review/internal/middleware"
	"github.com/iliyamo/movie-review/internal/repository"
	"github.com/iliyamo/movie-review/internal/service"
	"github.com/iliyamo/movie-review/internal/storage"
	"github.com/iliyamo/movie-review/internal/view"
)

// Deps are the long-lived resources the routes are built from.  Redis may
// be nil, which disables the page cache and the login rate limiter.
type Deps struct {
	Config   config.Config
	DB       *sql.DB
	Log      *logger.Logger
	Redis    *redis.Client
	Posters  storage.PosterStore
	Notifier service.Notifier
}

// New builds the Echo instance serving the whole site.
func New(d Deps) (*echo.Echo, error) {
	cfg := d.Config
	if d.Log == nil {
		d.Log = logger.Nop()
	}

	renderer, err := view.New(d.Posters.URL)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	users := repository.NewUserRepo(d.DB)
	sessions := &middleware.Sessions{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.SessionTTL,
		Secure: cfg.Auth.CookieSecure,
		Store:  repository.NewSessionRepo(d.DB),
		Users:  users,
	}

	// uploads are the largest bodies; leave room for the other fields
	bodyLimit := fmt.Sprintf("%dK", cfg.Storage.PosterMaxBytes/1024+1024)

	e.Use(
		echomw.RequestID(),
		middleware.RequestLogger(d.Log),
		echomw.Recover(),
		middleware.Tracing(),
		echomw.Secure(),
		sessions.Load(),
		echomw.BodyLimit(bodyLimit),
	)

	pageCache := middleware.NewResponseCache(cfg.Cache, d.Redis)
	var purger handler.CachePurger
	if pageCache != nil {
		purger = pageCache
	}
	cached := pageCache.Middleware()
	limited := middleware.NewTokenBucket(cfg.RateLimit, d.Redis)
	login := middleware.RequireLogin()

	auth := handler.NewAuthHandler(cfg.Auth, users, repository.NewProfileRepo(d.DB), sessions, d.Notifier, purger)
	movies := handler.NewMovieHandler(
		repository.NewMovieRepo(d.DB),
		repository.NewCategoryRepo(d.DB),
		repository.NewReviewRepo(d.DB),
		d.Posters,
		purger,
		cfg.Storage.PosterMaxBytes,
	)
	categories := handler.NewCategoryHandler(repository.NewCategoryRepo(d.DB))

	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB))

	// accounts
	e.GET("/register/", auth.RegisterPage)
	e.POST("/register/", auth.Register, limited)
	e.GET("/login/", auth.LoginPage)
	e.POST("/login/", auth.Login, limited)
	e.GET("/logout/", auth.Logout, login)
	e.POST("/logout/", auth.Logout, login)
	e.GET("/profile/", auth.ProfilePage, login)
	e.POST("/profile/", auth.UpdateProfile, login)

	// catalog; anonymous listing pages may be served from the cache
	e.GET("/", movies.List, cached)
	e.GET("/movie_list/", movies.List, cached)
	e.GET("/search_movies/", movies.Search, cached)
	e.GET("/movie/:id/", movies.Detail)
	e.GET("/add_movie/", movies.AddPage, login)
	e.POST("/add_movie/", movies.Add, login)
	e.GET("/edit_movie/:id/", movies.EditPage, login)
	e.POST("/edit_movie/:id/", movies.Edit, login)
	e.GET("/delete_movie/:id/", movies.DeletePage, login)
	e.POST("/delete_movie/:id/", movies.Delete, login)

	// reviews
	e.GET("/add_review/:id/", movies.ReviewPage, login)
	e.POST("/add_review/:id/", movies.AddReview, login)

	e.GET("/categories/", categories.List)
	e.POST("/categories/", categories.Create, login)

	if local, ok := d.Posters.(*storage.Local); ok && strings.HasPrefix(cfg.Storage.MediaURL, "/") {
		e.Static(strings.TrimSuffix(cfg.Storage.MediaURL, "/"), local.Dir())
	}

	return e, nil
}
