// Package statsd renders measurements as StatsD lines and ships them over UDP.
package statsd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitize collapses every run of whitespace in s into a single '-'.
func Sanitize(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	return string(appendSanitized(make([]byte, 0, len(s)), s))
}

func appendSanitized(dst []byte, s string) []byte {
	inSpace := false
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if unicode.IsSpace(r) {
			if !inSpace {
				dst = append(dst, '-')
			}
			inSpace = true
		} else {
			dst = append(dst, s[:size]...)
			inSpace = false
		}
		s = s[size:]
	}
	return dst
}
