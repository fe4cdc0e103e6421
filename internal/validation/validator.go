package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/hash"
)

const validatedKey = "validation.payload"

// Validator checks payloads against the `validate` tags of their type.
// Compiled rules are cached per type by the underlying validator, so one
// instance is built at startup and shared by every request.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "bcryptmax", bcryptMax)
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// bcryptMax limits a password by bytes, not runes: bcrypt refuses input
// longer than hash.MaxPasswordBytes.
func bcryptMax(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= hash.MaxPasswordBytes
}

// Validate implements echo.Validator. Rule violations come back as Errors;
// any other error means the payload was not a struct.
func (v *Validator) Validate(payload any) error {
	err := v.v.Struct(payload)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	out := make(Errors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// Body binds the request body into a fresh T, validates it and stores the
// result for Validated. The next handler only runs for valid payloads.
func Body[T any](v *Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var payload T
			if err := c.Bind(&payload); err != nil {
				return Reject(bindErrors(err))
			}

			if err := v.Validate(&payload); err != nil {
				var errs Errors
				if errors.As(err, &errs) {
					return Reject(errs)
				}
				return err
			}

			c.Set(validatedKey, payload)
			return next(c)
		}
	}
}

// Validated returns the payload stored by Body[T].
func Validated[T any](c echo.Context) (T, bool) {
	payload, ok := c.Get(validatedKey).(T)
	return payload, ok
}

func Reject(errs Errors) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
		"message": "validation failed",
		"errors":  errs,
	}).SetInternal(errs)
}

func bindErrors(err error) Errors {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return Errors{{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: "must be a " + typeErr.Type.String(),
		}}
	}
	return Errors{{
		Field:   "body",
		Rule:    "format",
		Message: "malformed request body",
	}}
}
