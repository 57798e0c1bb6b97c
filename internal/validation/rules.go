// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Identifiers validates that every element of a string slice is a non-blank
// identifier without surrounding whitespace.
var Identifiers = validation.By(func(value interface{}) error {
	ids, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_identifiers_type", "must be a list of strings")
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return validation.NewError("validation_identifier_blank", "must not contain blank identifiers")
		}
		if id != strings.TrimSpace(id) {
			return validation.NewError(
				"validation_identifier_whitespace",
				"identifiers must not contain surrounding whitespace",
			)
		}
	}
	return nil
})
