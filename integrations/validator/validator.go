// Package validator turns go-playground/validator failures into
// VALIDATION_FAILED envelopes.
//
//	type SignupRequest struct {
//	    Email string `json:"email" validate:"required,email"`
//	}
//	if err := validator.ValidateStruct(req); err != nil {
//	    errenvelope.Write(w, r, err)
//	    return
//	}
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	errenvelope "github.com/blackwell-systems/error-envelope"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator instance. Field names in
// errors follow the json tag, falling back to the Go field name.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
	})
	return validate
}

// ValidateStruct validates s and returns nil or a VALIDATION_FAILED
// envelope.
func ValidateStruct(s any) *errenvelope.Error {
	return FromValidator(Validator().Struct(s))
}

// FromValidator converts a validator error into an envelope.
// validator.ValidationErrors become field errors keyed by namespace
// (minus the root struct name); anything else goes through
// errenvelope.From.
func FromValidator(err error) *errenvelope.Error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return errenvelope.Wrap(errenvelope.CodeInternal, 0, "", err)
		}
		return errenvelope.From(err)
	}

	fields := make(errenvelope.FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = Message(fe)
	}
	return errenvelope.Validation(fields)
}

// Message renders a human-readable message for a single field failure.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if isText(fe.Kind()) {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if isText(fe.Kind()) {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return "is invalid"
	}
}

func isText(k reflect.Kind) bool {
	return k == reflect.String
}

// fieldPath drops the root struct name: "SignupRequest.address.zip"
// becomes "address.zip".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
