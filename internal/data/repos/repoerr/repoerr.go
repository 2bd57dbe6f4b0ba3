package repoerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate marks a unique-key violation.
var ErrDuplicate = errors.New("duplicate key")

const pgUniqueViolation = "23505"

// Translate maps driver-specific unique violations to ErrDuplicate and passes
// everything else through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
