package types

import (
	"fmt"
	"regexp"
)

// identifierPattern restricts table and column names to plain SQL
// identifiers. Names are interpolated into DDL and DML text.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// CheckIdentifiers returns an error wrapping ErrInvalidIdentifier for the
// first name that is not a valid identifier.
func CheckIdentifiers(names ...string) error {
	for _, name := range names {
		if !ValidIdentifier(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}
