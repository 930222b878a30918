package zoneadmin

import (
	"errors"
	"strings"
)

var errInvalidZoneName = errors.New("invalid zone name")

// CleanZoneName strips every character outside [-_.a-zA-Z0-9] from name.
// Whatever remains must still look like a zone name; a result that is
// empty or all dots is rejected so it can never escape the zone directory.
func CleanZoneName(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if strings.Trim(clean, ".") == "" {
		return "", errInvalidZoneName
	}
	return clean, nil
}
