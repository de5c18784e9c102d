// Package repository defines the data access layer and the error values
// shared by all repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure scenarios.
// For example, ErrForbidden indicates that the current user is not
// authorized to change a movie owned by someone else, while ErrNotFound
// signals that the referenced row does not exist.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameTaken is returned when a user is created or renamed with a
// username that already belongs to another account.
var ErrUsernameTaken = errors.New("username already exists")

// ErrInvalidCategory is returned when a movie references a category id
// that does not exist.
var ErrInvalidCategory = errors.New("category does not exist")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err was raised by a UNIQUE constraint,
// for both supported drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	// modernc.org/sqlite reports "constraint failed: UNIQUE constraint failed: ..."
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mysqlNoReferencedRow is ER_NO_REFERENCED_ROW_2.
const mysqlNoReferencedRow = 1452

// isForeignKeyViolation reports whether err was raised because a referenced
// row does not exist.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferencedRow
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
