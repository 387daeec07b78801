package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// strips spaces, NFC-normalises, removes trailing period
func CleanupString(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return s
}
