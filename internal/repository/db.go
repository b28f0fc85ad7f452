package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by repositories so services can map storage
// failures onto the API error taxonomy without inspecting driver types.
var (
	// ErrDuplicate indicates a unique-constraint violation (pq class 23505).
	ErrDuplicate = errors.New("duplicate record")
	// ErrForeignKey indicates a foreign-key violation (pq class 23503).
	ErrForeignKey = errors.New("referenced record missing")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translateError maps driver-level constraint failures onto sentinels and
// leaves every other error untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrDuplicate
		case pqForeignKeyViolation:
			return ErrForeignKey
		}
	}
	return err
}
