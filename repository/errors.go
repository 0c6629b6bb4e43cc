package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"riceMarketplace/models"
)

// mapConstraintErr converts a SQLite unique violation into models.ErrDuplicate,
// keeping the driver error in the chain.
func mapConstraintErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return errors.Join(models.ErrDuplicate, err)
	}
	return err
}
