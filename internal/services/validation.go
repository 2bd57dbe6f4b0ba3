package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/contactos-backend/internal/platform/apierr"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("telefono", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// fieldViolations runs struct validation and returns one FieldError per
// violated constraint, keyed by json path without the root struct.
func fieldViolations(s any) []apierr.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []apierr.FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]apierr.FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, apierr.FieldError{Field: fieldPath(fe.Namespace()), Message: messageFor(fe)})
	}
	return out
}

func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "Campo requerido"
	case "min":
		switch {
		case isString:
			return fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
		case fe.Kind() == reflect.Slice:
			return fmt.Sprintf("Debe contener al menos %s elementos", fe.Param())
		default:
			return fmt.Sprintf("Debe ser mayor o igual a %s", fe.Param())
		}
	case "max":
		switch {
		case isString:
			return fmt.Sprintf("Debe tener como máximo %s caracteres", fe.Param())
		case fe.Kind() == reflect.Slice:
			return fmt.Sprintf("Debe contener como máximo %s elementos", fe.Param())
		default:
			return fmt.Sprintf("Debe ser menor o igual a %s", fe.Param())
		}
	case "email":
		return "Formato de email inválido"
	case "telefono":
		return "El teléfono debe tener entre 7 y 15 dígitos y puede iniciar con +"
	default:
		return fmt.Sprintf("Valor inválido (%s)", fe.Tag())
	}
}

// emptyToNil treats a blank optional field as absent.
func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
