// Package validate holds the form schemas of the application and turns
// go-playground/validator failures into field -> message maps that the
// templates render next to each input.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NonField is the key used for errors that do not belong to one input.
const NonField = "__all__"

var v = newValidator()

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

func newValidator() *validator.Validate {
	vv := validator.New(validator.WithRequiredStructEnabled())
	// report errors under the form field name, not the Go field name
	vv.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = vv.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return vv
}

// Errors maps a form field name to a user-facing message.
type Errors map[string]string

// Error implements error with a stable, sorted rendering.
func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OrNil returns nil when no error was recorded.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Struct validates s against its `validate` tags.
func Struct(s any) Errors {
	errs := Errors{}
	if err := v.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs[NonField] = err.Error()
			return errs
		}
		for _, fe := range verrs {
			errs.Add(fe.Field(), messageFor(fe))
		}
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "http_url", "url":
		return "Enter a valid URL."
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	case "number":
		return "Enter a whole number."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fe.Error()
	}
}

// trim trims surrounding whitespace of every listed string.
func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
