package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review/internal/model"
	"github.com/iliyamo/movie-review/internal/repository"
	"github.com/iliyamo/movie-review/internal/validate"
	"github.com/iliyamo/movie-review/internal/view"
)

// CategoryHandler lists and creates movie categories.
type CategoryHandler struct {
	Categories *repository.CategoryRepo
}

func NewCategoryHandler(r *repository.CategoryRepo) *CategoryHandler {
	return &CategoryHandler{Categories: r}
}

// List is public; the creation form is only shown to logged-in users.
func (h *CategoryHandler) List(c echo.Context) error {
	return h.renderList(c, http.StatusOK, &validate.CategoryForm{}, nil)
}

// Create adds a category and returns to the list.
func (h *CategoryHandler) Create(c echo.Context) error {
	var form validate.CategoryForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	if err := form.Validate(); err != nil {
		return h.renderList(c, http.StatusUnprocessableEntity, &form, fieldErrors(err))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Categories.Create(ctx, &model.Category{Name: form.Name}); err != nil {
		return err
	}
	setFlash(c, "Category \""+form.Name+"\" added.")
	return c.Redirect(http.StatusSeeOther, "/categories/")
}

func (h *CategoryHandler) renderList(c echo.Context, status int, form *validate.CategoryForm, errs validate.Errors) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return err
	}
	page := view.Page{Title: "Categories", Form: form, Errors: errs, Data: view.CategoryList{Categories: cats}}
	return render(c, status, "categories", page)
}
