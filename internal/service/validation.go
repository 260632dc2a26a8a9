package service

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

var (
	hasUppercase = regexp.MustCompile(`[A-Z]`)
	hasLowercase = regexp.MustCompile(`[a-z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

// ValidateEmail checks shape and returns the lowercased login key.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return "", apperrors.NewValidationError("invalid email address", nil)
	}
	return email, nil
}

// ValidatePassword enforces the password policy: at least 8 characters with
// an uppercase letter, a lowercase letter, and a digit.
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(8, 0).Error("password must be at least 8 characters"),
		validation.Match(hasUppercase).Error("password must contain at least one uppercase letter"),
		validation.Match(hasLowercase).Error("password must contain at least one lowercase letter"),
		validation.Match(hasDigit).Error("password must contain at least one number"),
	)
	if err != nil {
		return apperrors.NewValidationError("password does not meet requirements", map[string]any{"reason": err.Error()})
	}
	return nil
}
