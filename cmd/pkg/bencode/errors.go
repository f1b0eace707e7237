package bencode

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies a decoding failure.
type ErrorKind int

const (
	MissingDelimiter ErrorKind = iota + 1
	MalformedLength
	LengthMismatch
	MalformedInteger
	IntegerOverflow
	UnterminatedComposite
	MalformedDictionary
	TypeMismatch
	DepthExceeded
	UnrecognizedFragment
)

var errorKindNames = map[ErrorKind]string{
	MissingDelimiter:      "missing delimiter",
	MalformedLength:       "malformed length",
	LengthMismatch:        "length mismatch",
	MalformedInteger:      "malformed integer",
	IntegerOverflow:       "integer overflow",
	UnterminatedComposite: "unterminated composite",
	MalformedDictionary:   "malformed dictionary",
	TypeMismatch:          "type mismatch",
	DepthExceeded:         "depth exceeded",
	UnrecognizedFragment:  "unrecognized fragment",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind(%d)", int(k))
}

// Error is the only error type returned by this package. Offset is the
// absolute byte offset in the decoded buffer, or -1 when unknown.
type Error struct {
	Kind   ErrorKind
	Offset int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("bencode: ")
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the Err* values below work as
// sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingDelimiter      = &Error{Kind: MissingDelimiter, Offset: -1}
	ErrMalformedLength       = &Error{Kind: MalformedLength, Offset: -1}
	ErrLengthMismatch        = &Error{Kind: LengthMismatch, Offset: -1}
	ErrMalformedInteger      = &Error{Kind: MalformedInteger, Offset: -1}
	ErrIntegerOverflow       = &Error{Kind: IntegerOverflow, Offset: -1}
	ErrUnterminatedComposite = &Error{Kind: UnterminatedComposite, Offset: -1}
	ErrMalformedDictionary   = &Error{Kind: MalformedDictionary, Offset: -1}
	ErrTypeMismatch          = &Error{Kind: TypeMismatch, Offset: -1}
	ErrDepthExceeded         = &Error{Kind: DepthExceeded, Offset: -1}
	ErrUnrecognized          = &Error{Kind: UnrecognizedFragment, Offset: -1}
)

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func newError(kind ErrorKind, offset int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
