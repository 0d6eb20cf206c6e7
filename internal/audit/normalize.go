// Package audit runs physical stock-takes against the chromebook inventory:
// counting devices into an audit session, reconciling the counts with the
// expected inventory, and compiling reports.
package audit

import "strings"

// DefaultPrefix is the device-code prefix used when none is configured.
const DefaultPrefix = "CHR"

// Normalize turns a scanned or typed token into a lookup key.
//
// A purely numeric token becomes a device code ("8" -> "CHR008"). A token
// that already carries the prefix is upper-cased. Anything else is returned
// trimmed, since it may be a serial or patrimony number.
func Normalize(raw, prefix string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if isDigits(s) {
		if len(s) < 3 {
			s = strings.Repeat("0", 3-len(s)) + s
		}
		return strings.ToUpper(prefix) + s
	}

	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.ToUpper(s)
	}

	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
