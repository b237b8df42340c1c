package parser

import (
	"strings"
	"unicode/utf8"
)

var simpleEscapes = map[rune]rune{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'b':  '\b',
	'f':  '\f',
	'v':  '\v',
	'a':  '\a',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

// Unquote strips the surrounding double quotes of a raw string token and
// decodes its escapes.
func Unquote(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return DecodeEscapes(raw)
}

// DecodeEscapes replaces backslash escapes in s.
//
//	\n \r \t \b \f \v \a \\ \' \"   control and quote characters
//	\xH or \xHH                     code point U+00HH
//	\uHHHH                          code point U+HHHH
//	\UHHHHHHHH                      code point U+HHHHHHHH
//
// Code points are written as UTF-8; values that are not valid code points
// become U+FFFD.  Unknown escapes (and \x, \u, \U without enough hex digits)
// produce the escaped character itself.  A trailing lone backslash is kept.
func DecodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var out strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' || i+1 >= len(runes) {
			out.WriteRune(r)
			continue
		}
		i++
		c := runes[i]
		if mapped, ok := simpleEscapes[c]; ok {
			out.WriteRune(mapped)
			continue
		}
		switch c {
		case 'x', 'u', 'U':
			minDigits, maxDigits := 1, 2
			if c == 'u' {
				minDigits, maxDigits = 4, 4
			} else if c == 'U' {
				minDigits, maxDigits = 8, 8
			}
			value, n := readHex(runes[i+1:], minDigits, maxDigits)
			if n == 0 {
				out.WriteRune(c)
				continue
			}
			i += n
			if !utf8.ValidRune(value) {
				value = utf8.RuneError
			}
			out.WriteRune(value)
		default:
			out.WriteRune(c)
		}
	}
	return out.String()
}

// readHex reads between lo and hi hex digits.  It returns the digit count
// consumed, which is 0 when fewer than lo digits are available.
func readHex(runes []rune, lo, hi int) (value rune, n int) {
	for n < hi && n < len(runes) {
		d := hexValue(runes[n])
		if d < 0 {
			break
		}
		value = value*16 + d
		n++
	}
	if n < lo {
		return 0, 0
	}
	return value, n
}

func hexValue(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r - '0'
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10
	}
	return -1
}
