// Package validation validates request structs with go-playground/validator
// and translates failures into apperror validation errors.
//
// Field names in errors are the JSON (or form) names of the fields, so a
// client sees "fullName is required" rather than the Go field name.
//
// Custom tags:
//   - notblank: string is non-empty after trimming; slice or map is non-empty
//   - maxbytes=N: string is at most N bytes long (max counts runes)
//   - accounttype: string names a model.AccountType
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Get returns the process-wide validator, building it on first use.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		rules := map[string]validator.Func{
			"notblank":    notBlank,
			"maxbytes":    maxBytes,
			"accounttype": accountType,
		}
		for tag, fn := range rules {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("validation: registering %s: %v", tag, err))
			}
		}
	})
	return validate
}

// Struct validates s and returns nil or an *apperror.AppError listing every
// failing field.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}

	details := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperror.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return apperror.Invalid(details...)
}

// Var validates a single value against tag and reports it under field.
func Var(field string, value any, tag string) error {
	err := Get().Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validation: %w", err)
	}
	return apperror.ValidationFailed(field, messageFor(field, verrs[0].Tag(), verrs[0].Param()))
}

func message(fe validator.FieldError) string {
	return messageFor(fe.Field(), fe.Tag(), fe.Param())
}

func messageFor(field, tag, param string) string {
	switch tag {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, param)
	case "accounttype":
		return field + " must be one of: artist, user, organization"
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, param)
	default:
		return field + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.String:
		return strings.TrimSpace(f.String()) != ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return f.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !f.IsNil()
	default:
		return !f.IsZero()
	}
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("validation: bad maxbytes param %q", fl.Param()))
	}
	return fl.Field().Kind() == reflect.String && len(fl.Field().String()) <= limit
}

func accountType(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.String && model.AccountType(fl.Field().String()).Valid()
}

func jsonName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
