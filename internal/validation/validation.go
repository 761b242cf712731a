// Package validation wraps go-playground/validator with the payload rules
// for user and car inputs, and the cross-field checks for car filters.
// Validation failures never reach storage.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/carbrainiac/apiserver/internal/apperr"
	"github.com/carbrainiac/apiserver/types"
	"github.com/go-playground/validator/v10"
)

const minFilterYear = 1886

var phoneRegex = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	return v
}

// Struct validates a tagged payload struct and translates the first
// violation into a BadRequest error, mirroring the single-message schema
// errors the API has always returned.
func Struct(payload any) *apperr.Error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	ok := false
	if fieldErrs, ok = err.(validator.ValidationErrors); !ok || len(fieldErrs) == 0 {
		return apperr.BadRequest("invalid request payload")
	}
	return apperr.BadRequest(messageFor(fieldErrs[0]))
}

// CarFilter applies the cross-field rules a tag cannot express: range
// sanity (min <= max, domain floors) and the sort/pagination vocabulary.
func CarFilter(filter types.CarFilter) *apperr.Error {
	if err := checkRange("year", filter.Year, minFilterYear); err != nil {
		return err
	}
	if err := checkRange("mileage", filter.Mileage, 0); err != nil {
		return err
	}
	if err := checkRange("price", filter.Price, 0); err != nil {
		return err
	}

	if filter.Limit < 1 {
		return apperr.BadRequest("Limit must be at least 1")
	}
	if filter.Offset < 0 {
		return apperr.BadRequest("Offset cannot be negative")
	}

	switch filter.SortBy {
	case "", types.SortByPrice, types.SortByMileage, types.SortByYear:
	default:
		return apperr.BadRequest("SortBy must be one of [price, mileage, year]")
	}
	switch filter.Order {
	case "", types.OrderAsc, types.OrderDesc:
	default:
		return apperr.BadRequest("Order must be either asc or desc")
	}
	return nil
}

func checkRange(field string, r *types.Range, floor float64) *apperr.Error {
	if r == nil {
		return nil
	}
	if r.Min != nil && *r.Min < floor {
		return apperr.BadRequest(fmt.Sprintf("Minimum %s cannot be less than %g", field, floor))
	}
	if r.Max != nil && *r.Max < floor {
		return apperr.BadRequest(fmt.Sprintf("Maximum %s cannot be less than %g", field, floor))
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return apperr.BadRequest(fmt.Sprintf("Minimum %s cannot be greater than maximum %s", field, field))
	}
	return nil
}

func isStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case strings.ContainsRune("@$!%*?&", ch):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email address"
	case "phone":
		return "Please provide a valid phone number"
	case "password":
		return "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
