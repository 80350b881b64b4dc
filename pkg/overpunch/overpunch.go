// Package overpunch decodes the signed numeric encoding used by the
// back-office mainframe: a fixed-width digit run whose final position may
// carry the sign. 'J'..'R' encode a negative final digit 1..9 and '}'
// encodes a negative final 0; a bare digit means the value is positive.
package overpunch

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/finquota/finquota/pkg/finerr"
)

// offset maps 'J' to 1.
const offset = 'I'

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\v' || b == '\f' || b == '\r'
}

// Decode converts a fixed-width overpunch field to an int64.
//
// Trailing whitespace is trimmed. Empty input after the trim decodes to
// zero. Whitespace between digits, any byte outside 0-9/J-R/'}', or a value
// that does not fit an int64 is an error.
func Decode(b []byte) (int64, error) {
	n := len(b)
	for n > 0 && isSpace(b[n-1]) {
		n--
	}
	if n == 0 {
		return 0, nil
	}

	var v int64
	seenDigit := false
	for i := 0; i < n; i++ {
		c := b[i]
		switch {
		case c >= '0' && c <= '9':
			d := int64(c - '0')
			if v > (math.MaxInt64-d)/10 {
				return 0, fmt.Errorf("%w: overflow in %q", finerr.ErrBackOfficeIntParse, b)
			}
			v = v*10 + d
			seenDigit = true
		case c >= 'J' && c <= 'R':
			if i != n-1 {
				return 0, fmt.Errorf("%w: overpunch byte %q before end of %q", finerr.ErrBackOfficeIntParse, c, b)
			}
			d := int64(c - offset)
			if v > (math.MaxInt64-d)/10 {
				return 0, fmt.Errorf("%w: overflow in %q", finerr.ErrBackOfficeIntParse, b)
			}
			return -(v*10 + d), nil
		case c == '}':
			if i != n-1 {
				return 0, fmt.Errorf("%w: overpunch byte %q before end of %q", finerr.ErrBackOfficeIntParse, c, b)
			}
			if v > math.MaxInt64/10 {
				return 0, fmt.Errorf("%w: overflow in %q", finerr.ErrBackOfficeIntParse, b)
			}
			return -v * 10, nil
		case isSpace(c):
			// Leading padding is tolerated; a space after digits is not.
			if seenDigit {
				return 0, fmt.Errorf("%w: embedded space in %q", finerr.ErrBackOfficeIntParse, b)
			}
		default:
			return 0, fmt.Errorf("%w: invalid byte %q in %q", finerr.ErrBackOfficeIntParse, c, b)
		}
	}
	return v, nil
}

// TrimRight strips trailing ASCII whitespace from a fixed-width text field
// and returns the remainder as a string. The remainder must be valid UTF-8.
func TrimRight(b []byte) (string, error) {
	n := len(b)
	for n > 0 && isSpace(b[n-1]) {
		n--
	}
	if !utf8.Valid(b[:n]) {
		return "", fmt.Errorf("%w: invalid utf-8 in field %q", finerr.ErrInvalidPacket, b[:n])
	}
	return string(b[:n]), nil
}
