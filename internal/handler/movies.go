package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review/internal/logger"
	"github.com/iliyamo/movie-review/internal/middleware"
	"github.com/iliyamo/movie-review/internal/model"
	"github.com/iliyamo/movie-review/internal/repository"
	"github.com/iliyamo/movie-review/internal/storage"
	"github.com/iliyamo/movie-review/internal/validate"
	"github.com/iliyamo/movie-review/internal/view"
)

const (
	msgForbiddenEdit   = "You are not allowed to edit this movie."
	msgForbiddenDelete = "You are not allowed to delete this movie."
	msgMovieAdded      = "The movie has been added."
	msgMovieUpdated    = "The movie has been updated."
	msgMovieDeleted    = "The movie has been deleted."
	msgReviewAdded     = "Thank you for your review!"
)

// MovieHandler serves the catalog and review pages.
type MovieHandler struct {
	Movies     *repository.MovieRepo
	Categories *repository.CategoryRepo
	Reviews    *repository.ReviewRepo
	Posters    storage.PosterStore
	Cache      CachePurger
	// PosterMaxBytes limits a single poster upload.
	PosterMaxBytes int64
}

func NewMovieHandler(m *repository.MovieRepo, cat *repository.CategoryRepo, r *repository.ReviewRepo,
	posters storage.PosterStore, cache CachePurger, posterMax int64) *MovieHandler {
	if m == nil || cat == nil || r == nil || posters == nil {
		panic("nil dependency passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: m, Categories: cat, Reviews: r, Posters: posters, Cache: cache, PosterMaxBytes: posterMax}
}

// List shows every movie, oldest first.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, repository.MovieQuery{})
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "movie_list", view.Page{Title: "Movies", Data: view.MovieList{Movies: movies}})
}

// Search lists movies whose title contains q, ignoring case.  An empty q
// lists everything.
func (h *MovieHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))

	ctx, cancel := dbContext(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, repository.MovieQuery{Title: q})
	if err != nil {
		return err
	}
	data := view.MovieList{Movies: movies, Query: q}
	return render(c, http.StatusOK, "movie_list", view.Page{Title: "Search results", Data: data})
}

// Detail shows a movie with its reviews and average rating.
func (h *MovieHandler) Detail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return movieError(err, "")
	}
	reviews, err := h.Reviews.ListByMovie(ctx, id)
	if err != nil {
		return err
	}
	sum, err := h.Reviews.Summary(ctx, id)
	if err != nil {
		return err
	}
	data := view.MovieDetail{Movie: *m, Reviews: reviews, Summary: sum}
	return render(c, http.StatusOK, "movie_detail", view.Page{Title: m.Title, Data: data})
}

// AddPage shows the empty movie form.
func (h *MovieHandler) AddPage(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, "Add movie", &validate.MovieForm{}, nil, "")
}

// Add creates a movie owned by the current user.
func (h *MovieHandler) Add(c echo.Context) error {
	u := middleware.CurrentUser(c)

	var form validate.MovieForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	fields, errs := h.checkMovieForm(ctx, &form)
	img, perr := h.readPoster(c, errs)
	if perr != nil {
		return perr
	}
	if len(errs) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, "Add movie", &form, errs, "")
	}

	m := &model.Movie{
		Title:       fields.Title,
		Description: fields.Description,
		ReleaseDate: fields.ReleaseDate,
		Actors:      fields.Actors,
		CategoryID:  fields.CategoryID,
		TrailerLink: fields.TrailerLink,
		UserID:      u.ID,
	}
	if img != nil {
		key, err := h.Posters.Save(ctx, *img)
		if err != nil {
			return err
		}
		m.Poster = key
	}
	if err := h.Movies.Create(ctx, m); err != nil {
		h.dropPoster(ctx, m.Poster)
		if errors.Is(err, repository.ErrInvalidCategory) {
			errs = validate.Errors{"category": "Select a valid choice."}
			return h.renderForm(c, http.StatusUnprocessableEntity, "Add movie", &form, errs, "")
		}
		return err
	}

	h.purge(ctx)
	logger.FromContext(ctx).Info().Uint64("movie_id", m.ID).Uint64("user_id", u.ID).Msg("movie created")
	setFlash(c, msgMovieAdded)
	return c.Redirect(http.StatusSeeOther, "/movie_list/")
}

// ownedMovie loads the movie named by the :id parameter and checks that
// the current user owns it.
func (h *MovieHandler) ownedMovie(ctx context.Context, c echo.Context, forbidden string) (*model.Movie, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return nil, movieError(err, forbidden)
	}
	if !m.OwnedBy(middleware.CurrentUser(c).ID) {
		return nil, echo.NewHTTPError(http.StatusForbidden, forbidden)
	}
	return m, nil
}

// EditPage shows the movie form filled with the stored values.
func (h *MovieHandler) EditPage(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	m, err := h.ownedMovie(ctx, c, msgForbiddenEdit)
	if err != nil {
		return err
	}
	form := &validate.MovieForm{
		Title:       m.Title,
		Description: m.Description,
		ReleaseDate: m.ReleaseDate.Format(validate.DateLayout),
		Actors:      m.Actors,
		Category:    strconv.FormatUint(m.CategoryID, 10),
		TrailerLink: m.TrailerLink,
	}
	return h.renderForm(c, http.StatusOK, "Edit movie", form, nil, m.Poster)
}

// Edit updates a movie.  Ownership is checked before the form is read and
// again inside the update transaction.
func (h *MovieHandler) Edit(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	m, err := h.ownedMovie(ctx, c, msgForbiddenEdit)
	if err != nil {
		return err
	}
	owner := middleware.CurrentUser(c).ID

	var form validate.MovieForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	fields, errs := h.checkMovieForm(ctx, &form)
	img, perr := h.readPoster(c, errs)
	if perr != nil {
		return perr
	}
	if len(errs) > 0 {
		return h.renderForm(c, http.StatusUnprocessableEntity, "Edit movie", &form, errs, m.Poster)
	}

	upd := &model.Movie{
		ID:          m.ID,
		Title:       fields.Title,
		Description: fields.Description,
		ReleaseDate: fields.ReleaseDate,
		Actors:      fields.Actors,
		CategoryID:  fields.CategoryID,
		TrailerLink: fields.TrailerLink,
	}
	if img != nil {
		key, err := h.Posters.Save(ctx, *img)
		if err != nil {
			return err
		}
		upd.Poster = key
	}
	newPoster := upd.Poster
	replaced, err := h.Movies.UpdateByIDAndOwner(ctx, upd, owner)
	if err != nil {
		h.dropPoster(ctx, newPoster)
		if errors.Is(err, repository.ErrInvalidCategory) {
			errs = validate.Errors{"category": "Select a valid choice."}
			return h.renderForm(c, http.StatusUnprocessableEntity, "Edit movie", &form, errs, m.Poster)
		}
		return movieError(err, msgForbiddenEdit)
	}
	h.dropPoster(ctx, replaced)

	h.purge(ctx)
	setFlash(c, msgMovieUpdated)
	return c.Redirect(http.StatusSeeOther, "/movie_list/")
}

// DeletePage asks for confirmation before deleting a movie.
func (h *MovieHandler) DeletePage(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	m, err := h.ownedMovie(ctx, c, msgForbiddenDelete)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "movie_delete", view.Page{Title: "Delete movie", Data: view.MovieRef{Movie: *m}})
}

// Delete removes a movie and its reviews.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	u := middleware.CurrentUser(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	poster, err := h.Movies.DeleteByIDAndOwner(ctx, id, u.ID)
	if err != nil {
		return movieError(err, msgForbiddenDelete)
	}
	h.dropPoster(ctx, poster)

	h.purge(ctx)
	logger.FromContext(ctx).Info().Uint64("movie_id", id).Uint64("user_id", u.ID).Msg("movie deleted")
	setFlash(c, msgMovieDeleted)
	return c.Redirect(http.StatusSeeOther, "/movie_list/")
}

// ReviewPage shows the review form of a movie.
func (h *MovieHandler) ReviewPage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return movieError(err, "")
	}
	page := view.Page{Title: "Add review", Form: &validate.ReviewForm{}, Data: view.MovieRef{Movie: *m}}
	return render(c, http.StatusOK, "review_form", page)
}

// AddReview stores a review by the current user.  A user may review the
// same movie more than once.
func (h *MovieHandler) AddReview(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	u := middleware.CurrentUser(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return movieError(err, "")
	}

	var form validate.ReviewForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	fields, err := form.Validate()
	if err != nil {
		page := view.Page{Title: "Add review", Form: &form, Errors: fieldErrors(err), Data: view.MovieRef{Movie: *m}}
		return render(c, http.StatusUnprocessableEntity, "review_form", page)
	}

	rv := &model.Review{MovieID: m.ID, UserID: u.ID, Rating: fields.Rating, Comment: fields.Comment}
	if err := h.Reviews.Create(ctx, rv); err != nil {
		// the movie was deleted in between
		return movieError(err, "")
	}

	setFlash(c, msgReviewAdded)
	return c.Redirect(http.StatusSeeOther, "/movie_list/")
}

// checkMovieForm validates the form and that its category exists.  The
// returned map is never nil.
func (h *MovieHandler) checkMovieForm(ctx context.Context, form *validate.MovieForm) (validate.MovieFields, validate.Errors) {
	fields, err := form.Validate()
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			return fields, errs
		}
		return fields, validate.Errors{validate.NonField: err.Error()}
	}
	errs := validate.Errors{}
	ok, err := h.Categories.Exists(ctx, fields.CategoryID)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("category lookup failed")
		errs.Add(validate.NonField, "Something went wrong. Please try again later.")
	} else if !ok {
		errs.Add("category", "Select a valid choice.")
	}
	return fields, errs
}

// readPoster reads the optional poster upload.  Problems with the file are
// recorded in errs; only transport failures are returned.
func (h *MovieHandler) readPoster(c echo.Context, errs validate.Errors) (*storage.Image, error) {
	fh, err := c.FormFile("poster")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := storage.ReadImage(f, h.PosterMaxBytes)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		errs.Add("poster", "The poster file is too large.")
		return nil, nil
	case errors.Is(err, storage.ErrNotImage):
		errs.Add("poster", "Upload a valid image (jpeg, png, gif or webp).")
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &img, nil
}

// dropPoster deletes a poster object best-effort.
func (h *MovieHandler) dropPoster(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.Posters.Delete(ctx, key); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("poster", key).Msg("poster cleanup failed")
	}
}

func (h *MovieHandler) purge(ctx context.Context) {
	purgePages(ctx, h.Cache)
}

func (h *MovieHandler) renderForm(c echo.Context, status int, title string, form *validate.MovieForm, errs validate.Errors, poster string) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return err
	}
	page := view.Page{
		Title:  title,
		Form:   form,
		Errors: errs,
		Data:   view.MovieFormData{Categories: cats, Poster: poster},
	}
	return render(c, status, "movie_form", page)
}
