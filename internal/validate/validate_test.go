package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) Errors {
	t.Helper()
	var errs Errors
	require.True(t, errors.As(err, &errs), "expected validate.Errors, got %v", err)
	return errs
}

func TestRegisterForm(t *testing.T) {
	tests := []struct {
		name       string
		form       RegisterForm
		wantFields []string
	}{
		{
			name: "valid",
			form: RegisterForm{Username: "alice", Password: "pw123", Email: "a@x.com"},
		},
		{
			name: "valid with names and punctuation",
			form: RegisterForm{Username: "a.l+i-c_e@home", Password: "pw", Email: "a@x.com", FirstName: "Alice", LastName: "Liddell"},
		},
		{
			name:       "missing everything",
			form:       RegisterForm{},
			wantFields: []string{"email", "password", "username"},
		},
		{
			name:       "bad username characters",
			form:       RegisterForm{Username: "al ice!", Password: "pw", Email: "a@x.com"},
			wantFields: []string{"username"},
		},
		{
			name:       "username too long",
			form:       RegisterForm{Username: strings.Repeat("a", 151), Password: "pw", Email: "a@x.com"},
			wantFields: []string{"username"},
		},
		{
			name:       "bad email",
			form:       RegisterForm{Username: "alice", Password: "pw", Email: "nope"},
			wantFields: []string{"email"},
		},
		{
			name:       "password over bcrypt limit",
			form:       RegisterForm{Username: "alice", Password: strings.Repeat("p", 73), Email: "a@x.com"},
			wantFields: []string{"password"},
		},
		{
			name:       "first name too long",
			form:       RegisterForm{Username: "alice", Password: "pw", Email: "a@x.com", FirstName: strings.Repeat("x", 31)},
			wantFields: []string{"first_name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			errs := fieldErrors(t, err)
			for _, f := range tt.wantFields {
				assert.Contains(t, errs, f)
			}
			assert.Len(t, errs, len(tt.wantFields))
		})
	}
}

func TestRegisterForm_Trims(t *testing.T) {
	f := RegisterForm{Username: "  alice ", Password: " pw ", Email: " a@x.com "}
	require.NoError(t, f.Validate())
	assert.Equal(t, "alice", f.Username)
	assert.Equal(t, "a@x.com", f.Email)
	assert.Equal(t, " pw ", f.Password)
}

func TestLoginForm(t *testing.T) {
	f := LoginForm{Username: "alice", Password: "x"}
	assert.NoError(t, f.Validate())

	errs := fieldErrors(t, (&LoginForm{Username: " "}).Validate())
	assert.Equal(t, "This field is required.", errs["username"])
	assert.Equal(t, "This field is required.", errs["password"])
}

func TestProfileForm_EmptyPasswordAllowed(t *testing.T) {
	f := ProfileForm{Username: "alice", Email: "a@x.com"}
	assert.NoError(t, f.Validate())

	f.Password = strings.Repeat("p", 80)
	errs := fieldErrors(t, f.Validate())
	assert.Contains(t, errs, "password")
}

func validMovieForm() MovieForm {
	return MovieForm{
		Title:       "Dune",
		Description: "Spice.",
		ReleaseDate: "2021-10-22",
		Actors:      "Timothée Chalamet",
		Category:    "3",
		TrailerLink: "https://www.youtube.com/watch?v=n9xhJrPXop4",
	}
}

func TestMovieForm_Valid(t *testing.T) {
	f := validMovieForm()
	f.Title = "  Dune  "
	got, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, uint64(3), got.CategoryID)
	assert.Equal(t, "2021-10-22", got.ReleaseDate.Format(DateLayout))
}

func TestMovieForm_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(f *MovieForm)
		field string
	}{
		{name: "missing title", edit: func(f *MovieForm) { f.Title = "" }, field: "title"},
		{name: "title too long", edit: func(f *MovieForm) { f.Title = strings.Repeat("t", 101) }, field: "title"},
		{name: "missing description", edit: func(f *MovieForm) { f.Description = " " }, field: "description"},
		{name: "bad date", edit: func(f *MovieForm) { f.ReleaseDate = "22/10/2021" }, field: "release_date"},
		{name: "impossible date", edit: func(f *MovieForm) { f.ReleaseDate = "2021-02-30" }, field: "release_date"},
		{name: "actors too long", edit: func(f *MovieForm) { f.Actors = strings.Repeat("a", 201) }, field: "actors"},
		{name: "category not a number", edit: func(f *MovieForm) { f.Category = "drama" }, field: "category"},
		{name: "category zero", edit: func(f *MovieForm) { f.Category = "0" }, field: "category"},
		{name: "trailer not a url", edit: func(f *MovieForm) { f.TrailerLink = "youtube" }, field: "trailer_link"},
		{name: "trailer not http", edit: func(f *MovieForm) { f.TrailerLink = "ftp://example.com/x" }, field: "trailer_link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validMovieForm()
			tt.edit(&f)
			_, err := f.Validate()
			errs := fieldErrors(t, err)
			assert.Contains(t, errs, tt.field)
			assert.Len(t, errs, 1)
		})
	}
}

func TestReviewForm(t *testing.T) {
	tests := []struct {
		name    string
		form    ReviewForm
		want    uint32
		wantErr string
	}{
		{name: "zero is allowed", form: ReviewForm{Rating: "0", Comment: "bad"}, want: 0},
		{name: "five", form: ReviewForm{Rating: " 5 ", Comment: "good"}, want: 5},
		{name: "negative", form: ReviewForm{Rating: "-1", Comment: "x"}, wantErr: "rating"},
		{name: "decimal", form: ReviewForm{Rating: "4.5", Comment: "x"}, wantErr: "rating"},
		{name: "overflow", form: ReviewForm{Rating: "4294967296", Comment: "x"}, wantErr: "rating"},
		{name: "missing rating", form: ReviewForm{Comment: "x"}, wantErr: "rating"},
		{name: "missing comment", form: ReviewForm{Rating: "3"}, wantErr: "comment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.form.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.Rating)
				return
			}
			assert.Contains(t, fieldErrors(t, err), tt.wantErr)
		})
	}
}

func TestErrors_Error(t *testing.T) {
	e := Errors{"b": "second", "a": "first"}
	assert.Equal(t, "validation failed: a: first; b: second", e.Error())
	assert.NoError(t, Errors{}.OrNil())

	e.Add("a", "ignored")
	assert.Equal(t, "first", e["a"])
}
