// Package zonefiles manages zone file placement on disk and a durable
// registry of which zones have been provisioned. File locations are derived
// from a filename pattern so large installations can shard zones across
// directories without configuration per zone.
package zonefiles

import (
	"errors"
	"strings"
)

// Pattern placeholders:
//
//	%s  the full zone name
//	%1  first character of the zone name
//	%2  second character of the zone name
//	%3  third character of the zone name
//	%z  top-level label (rightmost)
//	%y  second label from the right
//	%x  third label from the right
//
// The %z/%y/%x labels never include the leftmost label of the name, so
// "example.com" expands %z to "com" and leaves %y empty. Placeholders whose
// source character or label does not exist expand to the empty string, and
// any resulting double slashes are collapsed.
type Pattern struct {
	raw string
}

var errPatternMissingName = errors.New("filename pattern must contain %s")

// ParsePattern validates the raw pattern. A pattern without %s would map
// every zone to the same file, so it is rejected outright.
func ParsePattern(raw string) (Pattern, error) {
	if !strings.Contains(raw, "%s") {
		return Pattern{}, errPatternMissingName
	}
	return Pattern{raw: raw}, nil
}

func (p Pattern) String() string {
	return p.raw
}

// Expand renders the pattern for a zone name. The name is substituted last
// so characters in the name itself are never treated as placeholders.
func (p Pattern) Expand(name string) string {
	out := p.raw

	chars := []rune(name)
	for i := 1; i <= 3; i++ {
		ph := "%" + string(rune('0'+i))
		if len(chars) >= i {
			out = strings.ReplaceAll(out, ph, string(chars[i-1]))
		} else {
			out = strings.ReplaceAll(out, ph, "")
		}
	}

	// Drop the leftmost label; %z/%y/%x address the parent of the name.
	labels := strings.Split(strings.Trim(name, "."), ".")
	var rest []string
	if len(labels) > 0 {
		rest = labels[1:]
	}
	out = strings.ReplaceAll(out, "%z", labelFromRight(rest, 1))
	out = strings.ReplaceAll(out, "%y", labelFromRight(rest, 2))
	out = strings.ReplaceAll(out, "%x", labelFromRight(rest, 3))

	out = strings.ReplaceAll(out, "%s", name)

	for strings.Contains(out, "//") {
		out = strings.ReplaceAll(out, "//", "/")
	}
	return out
}

func labelFromRight(labels []string, n int) string {
	if len(labels) < n {
		return ""
	}
	return labels[len(labels)-n]
}
