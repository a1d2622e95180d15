package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// inputValidator wraps go-playground/validator so that field errors are
// reported under their JSON names.
type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &inputValidator{validate: v}
}

// check validates s and returns its field errors, or nil.
func (v *inputValidator) check(s any) (*ValidationError, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), message(fe))
	}
	return verr, nil
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "uuid":
		return fmt.Sprintf("The %s field must be a valid UUID.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
