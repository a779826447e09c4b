package service

import (
	"errors"

	"github.com/crecheapp/creche-backend/internal/repository"
)

// Sentinel errors returned by services. Handlers map them to HTTP status and error codes.
var (
	ErrNotFound   = repository.ErrNotFound
	ErrDuplicate  = repository.ErrDuplicate
	ErrReferenced = repository.ErrReferenced
	ErrForbidden  = errors.New("forbidden")
	ErrEmailTaken = errors.New("email already in use")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveProfile    = errors.New("profile is inactive")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrWrongPassword      = errors.New("current password does not match")
	ErrSelfDelete         = errors.New("cannot delete or deactivate own profile")

	ErrNoFinancialGuardian   = errors.New("at least one guardian must be financially responsible")
	ErrGuardianAlreadyLinked = errors.New("guardian already linked to student")
	ErrGuardianNotLinked     = errors.New("guardian not linked to student")
	ErrNotGuardianProfile    = errors.New("profile is not a guardian")
	ErrGuardianStillLinked   = errors.New("guardian is still linked to students")

	ErrInvalidTeacher = errors.New("teacher must be an active educator of the institution")
	ErrInvalidClass   = errors.New("class does not exist")
	ErrInvalidStudent = errors.New("student does not exist")
	ErrInvalidEvent   = errors.New("event does not exist")
	ErrClassFull      = errors.New("class capacity reached")
	ErrClassInUse     = errors.New("class still has students")
	ErrClassNameTaken = errors.New("class name already in use")

	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDateRange   = errors.New("end must not be before start")
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
)

// ImportError reports the spreadsheet rows that could not be imported.
type ImportError struct {
	Rows map[int]string
}

func (e *ImportError) Error() string {
	return "invalid spreadsheet rows"
}

func (e *ImportError) Unwrap() error {
	return ErrInvalidSpreadsheet
}
