package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"streamnet/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator checks request DTOs and translates failures into domain errors.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s. Missing required fields win over every other failure,
// then a short password, then a malformed email.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	missing := map[string]string{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing[fe.Field()] = "required"
		}
	}
	if len(missing) > 0 {
		return model.ErrValidationFailed.WithFields(missing)
	}

	for _, fe := range verrs {
		if fe.Field() == "password" && fe.Tag() == "min" {
			return model.ErrWeakPassword
		}
	}
	for _, fe := range verrs {
		if fe.Tag() == "loose_email" {
			return model.ErrInvalidEmailFormat
		}
	}

	fields := map[string]string{}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return model.ErrValidationFailed.WithMessage("invalid input").WithFields(fields)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
