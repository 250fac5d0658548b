package domain

import dErrors "custodia/pkg/domain-errors"

// IdentityClass is a domain value that separates the two registered identity
// kinds. It appears in custody paths, so values are lowercase and stable.
//
// Usage: construct via ParseIdentityClass at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type IdentityClass string

const (
	// ClassDebtor is a data subject: the person whose data is shared.
	ClassDebtor IdentityClass = "debtor"
	// ClassCreditor is a data holder or requester institution.
	ClassCreditor IdentityClass = "creditor"
)

var validIdentityClasses = map[IdentityClass]bool{
	ClassDebtor:   true,
	ClassCreditor: true,
}

// ParseIdentityClass constructs an IdentityClass from external input.
//
// Errors: returns CodeValidation when the value is empty or unsupported.
func ParseIdentityClass(s string) (IdentityClass, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "identity class cannot be empty")
	}
	c := IdentityClass(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "identity class must be debtor or creditor")
	}
	return c, nil
}

// IsValid checks the class against the supported enum values.
func (c IdentityClass) IsValid() bool {
	return validIdentityClasses[c]
}

// String returns the string representation of the class.
func (c IdentityClass) String() string {
	return string(c)
}
