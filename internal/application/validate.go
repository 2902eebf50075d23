package application

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	"github.com/oksasatya/fintrack-auth/pkg/helpers"
)

// MinPasswordLength applies to reset and change-password.
const MinPasswordLength = 8

const maxNameLength = 100

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func validPhone(phone string) bool {
	return validate.Var(phone, "required,e164") == nil
}

func checkNewPassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return apperr.BadRequest("password must be at least 8 characters")
	}
	return checkPasswordBytes(pw)
}

func checkPasswordBytes(pw string) error {
	if len(pw) > helpers.MaxPasswordBytes {
		return apperr.BadRequest("password must be at most 72 bytes")
	}
	return nil
}

func checkName(field, v string) error {
	if v == "" {
		return apperr.BadRequest(field + " is required")
	}
	if utf8.RuneCountInString(v) > maxNameLength {
		return apperr.BadRequest(field + " must be at most 100 characters")
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
