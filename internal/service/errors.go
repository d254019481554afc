package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrActionNotAllowed   = errors.New("action not allowed for this user")
	ErrNothingToExport    = errors.New("nothing to export")
	ErrExportInProgress   = errors.New("an export is already in progress")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// lookupErr turns a repository lookup failure into ErrNotFound when the record is missing.
func lookupErr(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
