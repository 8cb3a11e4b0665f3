package text

import (
	"strings"
)

// Normalize cleans raw extracted text for downstream analysis:
// line endings become \n, ASCII control characters are dropped, runs of
// spaces/tabs collapse to one space, runs of 3+ newlines collapse to exactly
// two, and leading/trailing whitespace is trimmed.
//
// Normalize is pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	newlines := 0
	wroteAny := false

	flushBreaks := func() {
		if newlines > 0 {
			if wroteAny {
				if newlines > 2 {
					newlines = 2
				}
				for i := 0; i < newlines; i++ {
					b.WriteByte('\n')
				}
			}
			newlines = 0
			pendingSpace = false
			return
		}
		if pendingSpace && wroteAny {
			b.WriteByte(' ')
		}
		pendingSpace = false
	}

	for _, r := range s {
		switch {
		case r == '\n':
			newlines++
			pendingSpace = false
		case r == ' ' || r == '\t':
			if newlines == 0 {
				pendingSpace = true
			}
		case r < 0x20 || r == 0x7F:
			// Remaining ASCII control characters are dropped outright.
		default:
			flushBreaks()
			b.WriteRune(r)
			wroteAny = true
		}
	}

	return b.String()
}
