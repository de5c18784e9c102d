package validate

import (
	"strconv"
	"time"
)

// DateLayout is the accepted release date format.
const DateLayout = "2006-01-02"

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password  string `form:"password" validate:"required"`
	Email     string `form:"email" validate:"required,email,max=254"`
	FirstName string `form:"first_name" validate:"max=30"`
	LastName  string `form:"last_name" validate:"max=30"`
}

// Validate trims the text fields and checks the form.
func (f *RegisterForm) Validate() error {
	trim(&f.Username, &f.Email, &f.FirstName, &f.LastName)
	errs := Struct(f)
	checkPassword(errs, f.Password)
	return errs.OrNil()
}

// LoginForm only checks that both fields were sent; credentials are
// verified by the handler.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func (f *LoginForm) Validate() error {
	trim(&f.Username)
	return Struct(f).OrNil()
}

// ProfileForm edits the account and its profile.  An empty password
// keeps the current one.
type ProfileForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password  string `form:"password"`
	FirstName string `form:"first_name" validate:"max=30"`
	LastName  string `form:"last_name" validate:"max=30"`
}

func (f *ProfileForm) Validate() error {
	trim(&f.Username, &f.Email, &f.FirstName, &f.LastName)
	errs := Struct(f)
	if f.Password != "" {
		checkPassword(errs, f.Password)
	}
	return errs.OrNil()
}

func checkPassword(errs Errors, pw string) {
	if len(pw) > maxPasswordBytes {
		errs.Add("password", "Ensure this value has at most 72 bytes.")
	}
}

// MovieForm is the create/edit movie form.  The poster file travels
// separately in the multipart body.
type MovieForm struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"required"`
	ReleaseDate string `form:"release_date" validate:"required,datetime=2006-01-02"`
	Actors      string `form:"actors" validate:"required,max=200"`
	Category    string `form:"category" validate:"required,number"`
	TrailerLink string `form:"trailer_link" validate:"required,http_url,max=200"`
}

// MovieFields are the typed values of a valid MovieForm.
type MovieFields struct {
	Title       string
	Description string
	ReleaseDate time.Time
	Actors      string
	CategoryID  uint64
	TrailerLink string
}

// Validate checks the form and converts it to typed fields.
func (f *MovieForm) Validate() (MovieFields, error) {
	trim(&f.Title, &f.Description, &f.ReleaseDate, &f.Actors, &f.Category, &f.TrailerLink)
	errs := Struct(f)

	var out MovieFields
	if _, bad := errs["category"]; !bad {
		id, err := strconv.ParseUint(f.Category, 10, 64)
		if err != nil || id == 0 {
			errs.Add("category", "Select a valid choice.")
		}
		out.CategoryID = id
	}
	if _, bad := errs["release_date"]; !bad {
		d, err := time.Parse(DateLayout, f.ReleaseDate)
		if err != nil {
			errs.Add("release_date", "Enter a valid date (YYYY-MM-DD).")
		}
		out.ReleaseDate = d
	}
	if err := errs.OrNil(); err != nil {
		return MovieFields{}, err
	}
	out.Title = f.Title
	out.Description = f.Description
	out.Actors = f.Actors
	out.TrailerLink = f.TrailerLink
	return out, nil
}

// ReviewForm rates a movie with a non-negative whole number.
type ReviewForm struct {
	Rating  string `form:"rating" validate:"required,number"`
	Comment string `form:"comment" validate:"required"`
}

// ReviewFields are the typed values of a valid ReviewForm.
type ReviewFields struct {
	Rating  uint32
	Comment string
}

func (f *ReviewForm) Validate() (ReviewFields, error) {
	trim(&f.Rating, &f.Comment)
	errs := Struct(f)

	var out ReviewFields
	if _, bad := errs["rating"]; !bad {
		n, err := strconv.ParseUint(f.Rating, 10, 32)
		if err != nil {
			errs.Add("rating", "Ensure this value is less than or equal to 4294967295.")
		}
		out.Rating = uint32(n)
	}
	if err := errs.OrNil(); err != nil {
		return ReviewFields{}, err
	}
	out.Comment = f.Comment
	return out, nil
}

// CategoryForm creates a category.
type CategoryForm struct {
	Name string `form:"name" validate:"required,max=50"`
}

func (f *CategoryForm) Validate() error {
	trim(&f.Name)
	return Struct(f).OrNil()
}
