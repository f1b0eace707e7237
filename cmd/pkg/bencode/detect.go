package bencode

import (
	"bytes"
	"strconv"
)

// Classify reports which production a complete fragment looks like without
// decoding it. Rules are tried in order: string, integer, list, dictionary.
//
// A fragment is a string only if the bytes after ':' are exactly as long as
// the length prefix, so a window that is too short or too long is
// Unrecognized rather than String.
func Classify(fragment []byte) Kind {
	switch {
	case isString(fragment):
		return String
	case isDelimited(fragment, 'i'):
		return Integer
	case isDelimited(fragment, 'l'):
		return List
	case isDelimited(fragment, 'd'):
		return Dictionary
	}
	return Unrecognized
}

func isString(b []byte) bool {
	if len(b) == 0 || !isDigit(b[0]) {
		return false
	}
	colon := bytes.IndexByte(b, ':')
	if colon < 0 {
		return false
	}
	n, err := parseLength(b[:colon])
	return err == nil && n == len(b)-colon-1
}

func isDelimited(b []byte, open byte) bool {
	return len(b) >= 2 && b[0] == open && b[len(b)-1] == 'e'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseLength parses a string length prefix. Only ASCII digits are allowed.
func parseLength(digits []byte) (int, error) {
	if len(digits) == 0 {
		return 0, strconv.ErrSyntax
	}
	for _, c := range digits {
		if !isDigit(c) {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(string(digits))
}
