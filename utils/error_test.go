package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pre-check", &DuplicateKeyError{Field: "invoice_number", Value: "F-1"}, true},
		{"mysql 1062", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'F-1'"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452, Message: "fk"}, false},
		{"postgres 23505", &pgconn.PgError{Code: "23505"}, true},
		{"postgres fk", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: purchases.invoice_number (2067)"), true},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyError(tc.err))
		})
	}
}

func TestTranslateStoreError(t *testing.T) {
	err := TranslateStoreError(&mysql.MySQLError{Number: 1062}, "invoice_number", "F-1")
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, "duplicate invoice_number: F-1", err.Error())

	remote := errors.New("permission denied for table purchases")
	assert.Same(t, remote, TranslateStoreError(remote, "invoice_number", "F-1"))
	assert.NoError(t, TranslateStoreError(nil, "x", nil))
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("load: %w", NewValidationError("only %d units available", 3))
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(ErrorRecordNotFound))
	assert.Contains(t, err.Error(), "only 3 units available")
}
