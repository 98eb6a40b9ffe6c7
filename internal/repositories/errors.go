package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func gormIsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// gormIsDuplicate detects unique-constraint violations. TranslateError is
// enabled on the gorm connection, but the raw driver messages are matched
// as a fallback since translation coverage differs per dialect.
func gormIsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || // postgres
		strings.Contains(msg, "Duplicate entry") // mysql
}
