// Package validation checks user-supplied identifiers before they reach the
// provider lookups.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const maxIdentifierLength = 128

var (
	sourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9:/._#-]+$`)
)

// ValidateSourceName checks a source name path parameter.
func ValidateSourceName(name string) error {
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}

	if !sourceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid source name: %q", name)
	}

	return nil
}

// ValidateIdentifier checks a lookup identifier path parameter. The charset
// admits the URI-style schemes some sources use, but rejects anything that
// could smuggle path traversal or control characters.
func ValidateIdentifier(input string) error {
	if input == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(input) > maxIdentifierLength {
		return fmt.Errorf("identifier too long: %d characters (max %d)", len(input), maxIdentifierLength)
	}

	if strings.Contains(input, "..") {
		return fmt.Errorf("identifier contains path traversal: %q", input)
	}

	if !identifierPattern.MatchString(input) {
		return fmt.Errorf("identifier contains invalid characters: %q", input)
	}

	return nil
}
