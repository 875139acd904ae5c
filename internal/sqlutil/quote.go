// Package sqlutil validates and quotes the MySQL identifiers pealscope builds
// from its configured table prefix.
package sqlutil

import (
	"regexp"
	"strings"
)

// MaxIdentifierLength is the MySQL limit on table and column names.
const MaxIdentifierLength = 64

// Restricted to ASCII letters, digits and underscore.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// QuoteIdentifier quotes a MySQL identifier with backticks, doubling any
// embedded backtick.
// Example: "peal`s" -> "`peal``s`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ValidateIdentifier returns an *InvalidIdentifierError when name is empty,
// longer than MaxIdentifierLength or contains anything other than ASCII
// letters, digits and underscores.
func ValidateIdentifier(name string) error {
	switch {
	case name == "":
		return &InvalidIdentifierError{Name: name, Reason: "must not be empty"}
	case len(name) > MaxIdentifierLength:
		return &InvalidIdentifierError{Name: name, Reason: "exceeds the 64 character MySQL limit"}
	case !validIdentifierRegex.MatchString(name):
		return &InvalidIdentifierError{Name: name, Reason: "must contain only alphanumeric characters and underscores"}
	}
	return nil
}

// QuoteIdentifierSafe quotes a MySQL identifier after validating it.
func QuoteIdentifierSafe(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", err
	}
	return QuoteIdentifier(name), nil
}

// PrefixedTable returns the quoted name of table after prepending prefix.
// The combined name must be a valid identifier, so a long prefix can make
// only the longer tables fail.
func PrefixedTable(prefix, table string) (string, error) {
	return QuoteIdentifierSafe(prefix + table)
}

// InvalidIdentifierError is returned for an identifier MySQL would reject or
// that could not be safely interpolated.
type InvalidIdentifierError struct {
	Name   string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (" + e.Reason + ")"
}
