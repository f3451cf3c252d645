// Package refid parses and validates canonical reference identifiers.
//
// A reference id addresses one record on the external catalog platform and
// follows the grammar scheme://authority/Type/integer, for example
// gid://catalog/Component/4815162342.
package refid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ID is a parsed reference identifier.
type ID struct {
	Scheme    string
	Authority string
	Type      string
	Number    int64
}

var ErrInvalid = errors.New("invalid reference id")

// Parse validates raw against the reference-id grammar and returns its parts.
func Parse(raw string) (ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ID{}, fmt.Errorf("%w: empty value", ErrInvalid)
	}

	schemeRest := strings.SplitN(trimmed, "://", 2)
	if len(schemeRest) != 2 || schemeRest[0] == "" {
		return ID{}, fmt.Errorf("%w: missing scheme in %q", ErrInvalid, raw)
	}
	scheme := schemeRest[0]
	for _, r := range scheme {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ID{}, fmt.Errorf("%w: scheme %q must be lowercase alphanumeric", ErrInvalid, scheme)
		}
	}

	parts := strings.Split(schemeRest[1], "/")
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("%w: expected authority/Type/number in %q", ErrInvalid, raw)
	}
	authority, recordType, numberRaw := parts[0], parts[1], parts[2]
	if authority == "" {
		return ID{}, fmt.Errorf("%w: empty authority in %q", ErrInvalid, raw)
	}
	if recordType == "" {
		return ID{}, fmt.Errorf("%w: empty record type in %q", ErrInvalid, raw)
	}

	number, err := strconv.ParseInt(numberRaw, 10, 64)
	if err != nil || number < 0 {
		return ID{}, fmt.Errorf("%w: record number %q is not a non-negative integer", ErrInvalid, numberRaw)
	}

	return ID{Scheme: scheme, Authority: authority, Type: recordType, Number: number}, nil
}

// Valid reports whether raw conforms to the reference-id grammar.
func Valid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// String renders the id back into grammar form.
func (id ID) String() string {
	return fmt.Sprintf("%s://%s/%s/%d", id.Scheme, id.Authority, id.Type, id.Number)
}
