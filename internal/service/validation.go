package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError is a single violation on one request field.
type FieldError struct {
	Field   string
	Message string
}

// String renders the violation as "field <name> <message>".
func (e FieldError) String() string {
	return "field " + e.Field + " " + e.Message
}

// ValidationError collects every field violation of a request, in field order.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the rendered violations.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.String()
	}
	return msgs
}

var ruleMessages = map[string]string{
	"required": "must not be empty",
	"notblank": "must not be blank",
}

// structValidator adapts go-playground/validator to FieldError lists named after JSON fields.
type structValidator struct {
	validate *validator.Validate
}

func newStructValidator() *structValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	// NotBlank is a function of the right signature; registration cannot fail.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &structValidator{validate: v}
}

func (v *structValidator) Struct(s any) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		msg, ok := ruleMessages[fieldErr.Tag()]
		if !ok {
			msg = "failed on rule: " + fieldErr.Tag()
		}
		fieldErrors = append(fieldErrors, FieldError{Field: fieldErr.Field(), Message: msg})
	}
	return fieldErrors
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
