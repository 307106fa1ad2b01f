package dbutil

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Finalize rebinds the `?` placeholders produced by gendry to Postgres `$n`.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func pqCode(err error) string {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code)
	}
	return ""
}

// IsConflict reports a unique violation, also through wrapped errors.
func IsConflict(err error) bool {
	return pqCode(err) == codeUniqueViolation
}

// IsMissingReference reports a foreign key violation.
func IsMissingReference(err error) bool {
	return pqCode(err) == codeForeignKeyViolation
}
