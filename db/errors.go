package db

import (
	"database/sql"
	"errors"
	"fmt"

	"redeploy/internal/apperr"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// mapDriverError переводит ошибки драйверов в таксономию apperr.
func mapDriverError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity + " not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return apperr.New(apperr.KindConflict, fmt.Sprintf("%s already exists", entity), err)
		case "23503": // foreign_key_violation
			return apperr.New(apperr.KindReferentialConflict, fmt.Sprintf("%s is referenced by other records", entity), err)
		case "23514", "23502": // check_violation, not_null_violation
			return apperr.New(apperr.KindValidation, fmt.Sprintf("invalid %s", entity), err)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperr.New(apperr.KindConflict, fmt.Sprintf("%s already exists", entity), err)
		case sqlite3.ErrConstraintForeignKey:
			return apperr.New(apperr.KindReferentialConflict, fmt.Sprintf("%s is referenced by other records", entity), err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return apperr.New(apperr.KindValidation, fmt.Sprintf("invalid %s", entity), err)
		}
	}

	return apperr.Internal(fmt.Sprintf("%s storage failure", entity), err)
}
