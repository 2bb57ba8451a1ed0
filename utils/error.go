package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrDuplicateKey is matched by every DuplicateKeyError via errors.Is.
var ErrDuplicateKey = errors.New("duplicate key")

// ValidationError is returned when input is rejected before anything is written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DuplicateKeyError reports a unique constraint hit, either from a pre-check
// or from the store itself.
type DuplicateKeyError struct {
	Field string
	Value any
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("duplicate %s: %v", e.Field, e.Value)
	}
	return "duplicate " + e.Field
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite drivers only expose the message
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// TranslateStoreError maps a unique violation to DuplicateKeyError for field and
// returns every other store error unchanged.
func TranslateStoreError(err error, field string, value any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateKey) {
		return err
	}
	if IsDuplicateKeyError(err) {
		return &DuplicateKeyError{Field: field, Value: value, Err: err}
	}
	return err
}

func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
