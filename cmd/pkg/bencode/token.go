package bencode

import (
	"bytes"
	"fmt"
	"sort"
)

// Kind is the tag of a Token.
type Kind int

const (
	// Unrecognized is what Classify reports for a fragment that matches no
	// production. It never appears in a decoded tree.
	Unrecognized Kind = iota
	String
	Integer
	List
	Dictionary
)

var kindNames = [...]string{
	Unrecognized: "unrecognized",
	String:       "string",
	Integer:      "integer",
	List:         "list",
	Dictionary:   "dictionary",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Span is a half-open byte range [Start, End) of the decoded buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Token is a decoded bencode value. Only the payload matching its kind is
// set, and a decoded tree is never modified after Decode returns.
type Token struct {
	kind Kind
	str  []byte
	num  int64
	list []Token
	dict map[string]Token
	span Span
}

func NewString(s string) Token {
	return Token{kind: String, str: []byte(s)}
}

func NewBytes(b []byte) Token {
	return Token{kind: String, str: append([]byte{}, b...)}
}

func NewInteger(n int64) Token {
	return Token{kind: Integer, num: n}
}

func NewList(items ...Token) Token {
	return Token{kind: List, list: append([]Token{}, items...)}
}

func NewDictionary(entries map[string]Token) Token {
	dict := make(map[string]Token, len(entries))
	for k, v := range entries {
		dict[k] = v
	}
	return Token{kind: Dictionary, dict: dict}
}

func (t Token) Kind() Kind {
	return t.kind
}

// Span returns where the token was found in the decoded buffer. Tokens built
// with the New* constructors have a zero span.
func (t Token) Span() Span {
	return t.span
}

func (t Token) mismatch(want Kind) error {
	return &Error{
		Kind:   TypeMismatch,
		Offset: t.span.Start,
		Msg:    fmt.Sprintf("token is a %s, not a %s", t.kind, want),
	}
}

func (t Token) Int() (int64, error) {
	if t.kind != Integer {
		return 0, t.mismatch(Integer)
	}
	return t.num, nil
}

// Bytes returns a copy of a string token's payload.
func (t Token) Bytes() ([]byte, error) {
	if t.kind != String {
		return nil, t.mismatch(String)
	}
	return append([]byte{}, t.str...), nil
}

func (t Token) Text() (string, error) {
	if t.kind != String {
		return "", t.mismatch(String)
	}
	return string(t.str), nil
}

// List returns the elements of a list token in document order. The returned
// slice is a copy; the elements themselves are immutable.
func (t Token) List() ([]Token, error) {
	if t.kind != List {
		return nil, t.mismatch(List)
	}
	return append([]Token{}, t.list...), nil
}

func (t Token) Dict() (map[string]Token, error) {
	if t.kind != Dictionary {
		return nil, t.mismatch(Dictionary)
	}
	dict := make(map[string]Token, len(t.dict))
	for k, v := range t.dict {
		dict[k] = v
	}
	return dict, nil
}

// Lookup returns the value stored under key. It reports false when t is not
// a dictionary or the key is absent.
func (t Token) Lookup(key string) (Token, bool) {
	if t.kind != Dictionary {
		return Token{}, false
	}
	v, ok := t.dict[key]
	return v, ok
}

// Keys returns the keys of a dictionary token in sorted order.
func (t Token) Keys() []string {
	if t.kind != Dictionary {
		return nil
	}
	keys := make([]string, 0, len(t.dict))
	for k := range t.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the byte length of a string, the element count of a list or the
// entry count of a dictionary. It is zero for integers.
func (t Token) Len() int {
	switch t.kind {
	case String:
		return len(t.str)
	case List:
		return len(t.list)
	case Dictionary:
		return len(t.dict)
	}
	return 0
}

// Equal reports whether two trees hold the same values. Spans are ignored.
func (t Token) Equal(o Token) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case String:
		return bytes.Equal(t.str, o.str)
	case Integer:
		return t.num == o.num
	case List:
		if len(t.list) != len(o.list) {
			return false
		}
		for i := range t.list {
			if !t.list[i].Equal(o.list[i]) {
				return false
			}
		}
	case Dictionary:
		if len(t.dict) != len(o.dict) {
			return false
		}
		for k, v := range t.dict {
			ov, ok := o.dict[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
	}
	return true
}
