package services

import "strings"

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation on the given column, e.g. "accounts.email". The driver exposes
// no typed error for this, so the message text is the contract.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
