package bencode

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "bencode")

// DefaultMaxDepth bounds list and dictionary nesting when Options.MaxDepth
// is not set.
const DefaultMaxDepth = 128

// DuplicateKeyPolicy decides what happens when a dictionary repeats a key.
// Bencode leaves this undefined.
type DuplicateKeyPolicy int

const (
	// KeepFirst keeps the first occurrence and silently drops later ones.
	KeepFirst DuplicateKeyPolicy = iota
	KeepLast
	// RejectDuplicates fails the decode with MalformedDictionary.
	RejectDuplicates
)

func (p DuplicateKeyPolicy) String() string {
	switch p {
	case KeepFirst:
		return "first"
	case KeepLast:
		return "last"
	case RejectDuplicates:
		return "reject"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParseDuplicateKeyPolicy accepts "first", "last" or "reject".
func ParseDuplicateKeyPolicy(s string) (DuplicateKeyPolicy, error) {
	switch s {
	case "", "first":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	case "reject":
		return RejectDuplicates, nil
	}
	return 0, fmt.Errorf("unknown duplicate key policy %q (want first, last or reject)", s)
}

type Options struct {
	MaxDepth      int
	DuplicateKeys DuplicateKeyPolicy
}

// Decoder decodes complete bencode fragments. It holds no state between
// calls and is safe for concurrent use.
type Decoder struct {
	opts Options
}

func NewDecoder(opts Options) *Decoder {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Decoder{opts: opts}
}

var defaultDecoder = NewDecoder(Options{})

// Decode decodes data with the default options.
func Decode(data []byte) (Token, error) {
	return defaultDecoder.Decode(data)
}

// Decode decodes data, which must hold exactly one complete value. The
// first violation aborts the whole decode. A nil Decoder uses the defaults.
func (d *Decoder) Decode(data []byte) (Token, error) {
	if d == nil {
		d = defaultDecoder
	}

	var t Token
	err := d.checkExtent(data)
	if err == nil {
		t, err = d.decode(data, 0, 0)
	}
	if err != nil {
		logger.Debugf("decode of %d bytes failed: %v", len(data), err)
		return Token{}, err
	}
	logger.Debugf("decoded %s from %d bytes", t.kind, len(data))
	return t, nil
}

// decode classifies a fragment that starts at absolute offset base and
// dispatches it. depth is the nesting level of the enclosing composite.
func (d *Decoder) decode(b []byte, base, depth int) (Token, error) {
	span := Span{Start: base, End: base + len(b)}

	switch Classify(b) {
	case String:
		s, err := decodeString(b, base)
		if err != nil {
			return Token{}, err
		}
		return Token{kind: String, str: s, span: span}, nil
	case Integer:
		n, err := decodeInteger(b, base)
		if err != nil {
			return Token{}, err
		}
		return Token{kind: Integer, num: n, span: span}, nil
	case List:
		children, err := d.decodeChildren(b[1:len(b)-1], base+1, depth+1)
		if err != nil {
			return Token{}, err
		}
		return Token{kind: List, list: children, span: span}, nil
	case Dictionary:
		children, err := d.decodeChildren(b[1:len(b)-1], base+1, depth+1)
		if err != nil {
			return Token{}, err
		}
		dict, err := d.assembleDictionary(children, base)
		if err != nil {
			return Token{}, err
		}
		return Token{kind: Dictionary, dict: dict, span: span}, nil
	}

	return Token{}, d.unrecognized(b, base)
}

// checkExtent finds where a top-level integer, list or dictionary really
// ends. Classify only looks at the first and last byte, so "li1e" would
// otherwise pass as a list holding "i1".
func (d *Decoder) checkExtent(b []byte) error {
	if len(b) == 0 || (b[0] != 'i' && b[0] != 'l' && b[0] != 'd') {
		return nil
	}

	end, err := skipValue(b, 0, 0, d.opts.MaxDepth)
	if err != nil {
		return err
	}
	if end < len(b) {
		return newError(UnrecognizedFragment, end, "trailing data after %s", kindByPrefix(b[0]))
	}
	return nil
}

// unrecognized explains why b matched no production.
func (d *Decoder) unrecognized(b []byte, base int) error {
	if len(b) == 0 {
		return newError(UnrecognizedFragment, base, "empty input")
	}
	if isDigit(b[0]) {
		_, err := decodeString(b, base)
		return err
	}
	return newError(UnrecognizedFragment, base, "unexpected byte %q", b[0])
}

func kindByPrefix(c byte) Kind {
	switch c {
	case 'i':
		return Integer
	case 'l':
		return List
	}
	return Dictionary
}
