// Package validation collects attribute-level rule violations for entities
// before they are persisted. Rules are declared with `validate` struct tags;
// rules that depend on other attributes are supplied by the entity through
// the Conditional interface.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/eToThePiIPower/tldrit/internal/linkurl"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	_ = validate.RegisterValidation("present", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() == reflect.String {
			return strings.TrimSpace(fl.Field().String()) != ""
		}
		return !fl.Field().IsZero()
	})
	_ = validate.RegisterValidation("linkuri", func(fl validator.FieldLevel) bool {
		return linkurl.IsValid(fl.Field().String())
	})
}

// Errors maps an attribute name to its violation messages, in the order
// the rules reported them.
type Errors map[string][]string

// Add records msg against attr.
func (e Errors) Add(attr, msg string) {
	e[attr] = append(e[attr], msg)
}

// On returns the messages recorded for attr.
func (e Errors) On(attr string) []string {
	return e[attr]
}

// Empty reports whether no violation was recorded.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Full returns "attr message" strings sorted by attribute.
func (e Errors) Full() []string {
	attrs := make([]string, 0, len(e))
	for attr := range e {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	var out []string
	for _, attr := range attrs {
		for _, msg := range e[attr] {
			out = append(out, attr+" "+msg)
		}
	}
	return out
}

func (e Errors) Error() string {
	return "validation failed: " + strings.Join(e.Full(), "; ")
}

// Conditional is implemented by entities whose rules depend on their
// in-progress state, e.g. an attribute only required when another is blank.
type Conditional interface {
	ValidateConditional(errs Errors)
}

// Struct runs every tag rule on v, then its conditional rules, and returns
// the collected violations. The result is empty when v is valid.
func Struct(v any) Errors {
	errs := Errors{}

	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs.Add("base", err.Error())
			return errs
		}
		for _, fe := range fieldErrs {
			errs.Add(fe.Field(), message(fe))
		}
	}

	if c, ok := v.(Conditional); ok {
		c.ValidateConditional(errs)
	}
	return errs
}

// Field runs tags against a single value and records any violation under attr.
func Field(errs Errors, attr string, value any, tags string) {
	err := validate.Var(value, tags)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(attr, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(attr, message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "present", "required":
		return "can't be blank"
	case "min":
		return fmt.Sprintf("is too short (minimum is %s characters)", fe.Param())
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "linkuri":
		return "is not a valid HTTP or HTTPS URI"
	default:
		return "is invalid"
	}
}
