package logging

import (
	"strings"
	"unicode/utf8"
)

const mask = "****"

// RedactEmail keeps the first 2 runes of the local part and the whole domain.
// Malformed input (no '@', or '@' at either end) and local parts shorter than
// 3 runes are returned trimmed but otherwise unchanged.
func RedactEmail(s string) string {
	s = strings.TrimSpace(s)
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}

	local, domain := s[:at], s[at+1:]
	if utf8.RuneCountInString(local) < 3 {
		return s
	}

	return keepRunes(local, 2) + mask + "@" + domain
}

// RedactKeepPrefix keeps the first keep runes of s and masks the rest.
func RedactKeepPrefix(s string, keep int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= keep {
		return s
	}

	return keepRunes(s, keep) + mask
}

// RedactCode never reveals any digit of a one-time code.
func RedactCode(code string) string {
	if code == "" {
		return ""
	}
	return mask
}

func keepRunes(s string, n int) string {
	offset := 0
	for count := 0; count < n && offset < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return s[:offset]
}
