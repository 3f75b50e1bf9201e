package finance

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/comp-calculator/pkg/mathutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			return mathutil.IsFinite(fl.Field().Float())
		}
		return true
	})
	return v
}

// Validate checks a package at the boundary, before any projection. Missing
// option or private-company fields are accepted: those calculations are
// skipped rather than rejected.
func Validate(pkg Package) error {
	subject := "package"
	if pkg.Name != "" {
		subject = fmt.Sprintf("package %q", pkg.Name)
	}
	return structError(subject, validate.Struct(pkg))
}

// ValidateTaxRates checks a tax-rate configuration.
func ValidateTaxRates(rates TaxRates) error {
	return structError("tax rates", validate.Struct(rates))
}

func structError(subject string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %s: %w", subject, err)
	}

	cerr := &ConfigurationError{Subject: subject}
	for _, fe := range verrs {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		cerr.Fields = append(cerr.Fields, FieldError{Field: field, Message: describe(fe)})
	}
	return cerr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "finite":
		return "must be a finite number"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
