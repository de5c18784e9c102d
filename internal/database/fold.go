package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

// FoldFunc is the SQL function that lower-cases text on sqlite.  The
// built-in LOWER only folds ASCII there.
const FoldFunc = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
}

// Fold lower-cases s for case-insensitive matching.  Queries and the
// sqlite FoldFunc share it so both sides fold the same way.
func Fold(s string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Lower(language.Und).String(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", FoldFunc, v)
	}
}

// LowerFunc names the SQL function that lower-cases text like Fold for the
// dialect behind db.  MySQL's LOWER follows the column collation, which
// already covers Unicode.
func LowerFunc(db *sql.DB) string {
	if _, ok := db.Driver().(*sqlite.Driver); ok {
		return FoldFunc
	}
	return "LOWER"
}
