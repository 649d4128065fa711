package feedback

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/contraceptive-compass-server/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		return domain.Tier(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// NormalizeTier maps raw onto its canonical tier. Input naming no tier is
// returned unchanged so Validate reports it.
func NormalizeTier(raw string) domain.Tier {
	if t, err := domain.ParseTier(raw); err == nil {
		return t
	}
	return domain.Tier(raw)
}

// Validate checks a feedback entry before it is stored. The first failing
// field is reported as a *domain.ValidationError.
func Validate(fb *Feedback) error {
	err := validate.Struct(fb)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	return domain.NewValidationError(e.Field(), fieldErrorMessage(e), e.Value())
}

func fieldErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "uuid":
		return "must be a UUID"
	case "tier":
		return "must be one of recommended, caution, contraindicated"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	default:
		return "is invalid"
	}
}
