package bencode

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// DecodeString decodes a complete "<len>:<bytes>" fragment. The remainder
// after ':' must be exactly len bytes long. The result does not alias
// fragment.
func DecodeString(fragment []byte) ([]byte, error) {
	return decodeString(fragment, 0)
}

// DecodeInteger decodes a complete "i<digits>e" fragment into an int64.
func DecodeInteger(fragment []byte) (int64, error) {
	return decodeInteger(fragment, 0)
}

func decodeString(b []byte, base int) ([]byte, error) {
	colon := bytes.IndexByte(b, ':')
	if colon < 0 {
		return nil, newError(MissingDelimiter, base, "no ':' after string length")
	}

	n, err := parseLength(b[:colon])
	if err != nil {
		return nil, &Error{
			Kind:   MalformedLength,
			Offset: base,
			Msg:    "invalid string length " + strconv.Quote(string(b[:colon])),
			Err:    err,
		}
	}

	if rest := len(b) - colon - 1; rest != n {
		return nil, newError(LengthMismatch, base+colon+1, "declared %d bytes, found %d", n, rest)
	}

	out := make([]byte, n)
	copy(out, b[colon+1:])
	return out, nil
}

func decodeInteger(b []byte, base int) (int64, error) {
	if len(b) == 0 || b[0] != 'i' {
		return 0, newError(MalformedInteger, base, "integer must start with 'i'")
	}
	if len(b) < 2 || b[len(b)-1] != 'e' {
		return 0, newError(MalformedInteger, base, "integer is missing the closing 'e'")
	}

	digits := b[1 : len(b)-1]
	if !isSignedDecimal(digits) {
		return 0, newError(MalformedInteger, base+1, "invalid integer %q", digits)
	}

	v, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &Error{Kind: IntegerOverflow, Offset: base + 1, Msg: "integer does not fit in 64 bits", Err: err}
		}
		return 0, &Error{Kind: MalformedInteger, Offset: base + 1, Err: err}
	}
	return v, nil
}

// isSignedDecimal checks syntax up front so that an overlong run of digits
// followed by garbage is reported as malformed rather than as an overflow.
func isSignedDecimal(b []byte) bool {
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		b = b[1:]
	}
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !isDigit(c) {
			return false
		}
	}
	return true
}
