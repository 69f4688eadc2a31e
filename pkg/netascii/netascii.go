// Package netascii implements the RFC 764 derived text encoding used by
// TFTP for filenames and error messages: LF is transmitted as CR LF and a
// bare CR as CR NUL.
package netascii

import (
	"strings"

	"github.com/ajtop/tftp/pkg/utils"
)

func needsEscape(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// ToNetascii escapes s for the wire. If s contains neither CR nor LF it is
// returned as is, without allocating.
func ToNetascii(s string) string {
	if !needsEscape(s) {
		return s
	}

	var b strings.Builder

	b.Grow(len(s) + 2)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			b.WriteString("\r\n")
		case '\r':
			b.WriteString("\r\x00")
		default:
			b.WriteByte(s[i])
		}
	}

	return b.String()
}

// FromNetascii reverses ToNetascii. The same fast path applies: input
// without CR or LF is returned unchanged. A CR must be followed by LF or
// NUL; anything else, including a CR at the end of input, fails with
// utils.ErrInvalidNetascii.
func FromNetascii(s string) (string, error) {
	if !needsEscape(s) {
		return s, nil
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\r' {
			b.WriteByte(s[i])

			continue
		}

		i++

		if i == len(s) {
			return "", utils.ErrInvalidNetascii
		}

		switch s[i] {
		case '\n':
			b.WriteByte('\n')
		case 0:
			b.WriteByte('\r')
		default:
			return "", utils.ErrInvalidNetascii
		}
	}

	return b.String(), nil
}
