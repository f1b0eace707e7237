// Package prettyprint renders decoded bencode trees for people. It only
// reads the tree.
package prettyprint

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

// NestingLimit is the deepest level Fprint descends into.
const NestingLimit = 50

// maxHexBytes caps how much of a binary string is shown.
const maxHexBytes = 32

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(nesting int, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("\t", nesting), fmt.Sprintf(format, args...))
}

// Fprint writes t to w. Dictionaries print one "key: value" line per entry
// in key order, lists print "index: value" lines numbered from 1, and nested
// composites follow their parent line indented by one tab.
func Fprint(w io.Writer, t bencode.Token) error {
	p := &printer{w: w}
	switch t.Kind() {
	case bencode.List, bencode.Dictionary:
		p.complex(t, 0)
	default:
		p.line(0, "%s", Summary(t))
	}
	return p.err
}

func Sprint(t bencode.Token) string {
	var b bytes.Buffer
	_ = Fprint(&b, t)
	return b.String()
}

func (p *printer) complex(t bencode.Token, nesting int) {
	if nesting >= NestingLimit {
		p.line(nesting, "...nesting limit")
		return
	}

	switch t.Kind() {
	case bencode.Dictionary:
		for _, key := range t.Keys() {
			v, _ := t.Lookup(key)
			p.line(nesting, "%s: %s", key, Summary(v))
			p.child(v, nesting)
		}
	case bencode.List:
		items, _ := t.List()
		for i, v := range items {
			p.line(nesting, "%d: %s", i+1, Summary(v))
			p.child(v, nesting)
		}
	}
}

func (p *printer) child(t bencode.Token, nesting int) {
	if k := t.Kind(); k == bencode.List || k == bencode.Dictionary {
		p.complex(t, nesting+1)
	}
}

// Summary is the one-line rendering of a token: the value of a scalar, or
// the kind and size of a composite.
func Summary(t bencode.Token) string {
	switch t.Kind() {
	case bencode.Integer:
		n, _ := t.Int()
		return fmt.Sprintf("%d", n)
	case bencode.String:
		b, _ := t.Bytes()
		return text(b)
	case bencode.List:
		return fmt.Sprintf("list(%d)", t.Len())
	case bencode.Dictionary:
		return fmt.Sprintf("dictionary(%d)", t.Len())
	}
	return t.Kind().String()
}

func text(b []byte) string {
	if printable(b) {
		return string(b)
	}
	if len(b) > maxHexBytes {
		return fmt.Sprintf("<%d bytes> %s...", len(b), hex.EncodeToString(b[:maxHexBytes]))
	}
	return fmt.Sprintf("<%d bytes> %s", len(b), hex.EncodeToString(b))
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Plain converts t into plain Go values (string, int64, []interface{},
// map[string]interface{}) for JSON or YAML encoders. Binary strings become
// hex text.
func Plain(t bencode.Token) interface{} {
	switch t.Kind() {
	case bencode.Integer:
		n, _ := t.Int()
		return n
	case bencode.String:
		b, _ := t.Bytes()
		if printable(b) {
			return string(b)
		}
		return hex.EncodeToString(b)
	case bencode.List:
		items, _ := t.List()
		out := make([]interface{}, 0, len(items))
		for _, v := range items {
			out = append(out, Plain(v))
		}
		return out
	case bencode.Dictionary:
		dict, _ := t.Dict()
		out := make(map[string]interface{}, len(dict))
		for k, v := range dict {
			out[k] = Plain(v)
		}
		return out
	}
	return nil
}
