// Package service implements the application's use cases on top of the repositories.
package service

import (
	"unicode"
	"unicode/utf8"

	"pulse/internal/models"
)

// invalid turns a validation package error into a user-facing ValidationError.
func invalid(err error) *models.AppError {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	return models.NewValidationError(string(unicode.ToUpper(r)) + msg[size:])
}
