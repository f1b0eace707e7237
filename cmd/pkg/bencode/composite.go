package bencode

import (
	"bytes"
)

// Fragments splits the body of a list or dictionary (the bytes between the
// opening 'l' or 'd' and the closing 'e') into the spans of its top-level
// values, in document order. Spans are relative to body.
//
// Strings are skipped by their length prefix, so an 'e' or 'l' inside string
// data never affects nesting. Integers are skipped up to their 'e'. Lists and
// dictionaries are tracked with an open counter rather than recursion.
func Fragments(body []byte) ([]Span, error) {
	return fragments(body, 0, DefaultMaxDepth)
}

func fragments(body []byte, base, budget int) ([]Span, error) {
	var spans []Span
	for pos := 0; pos < len(body); {
		end, err := skipValue(body, pos, base, budget)
		if err != nil {
			return nil, err
		}
		spans = append(spans, Span{Start: pos, End: end})
		pos = end
	}
	return spans, nil
}

// skipValue returns the end of the value starting at start. budget is how
// many more levels of list or dictionary nesting are allowed.
func skipValue(b []byte, start, base, budget int) (int, error) {
	open := 0
	pos := start
	for {
		if pos >= len(b) {
			return 0, newError(UnterminatedComposite, base+start, "value runs past the end of its container")
		}

		switch c := b[pos]; {
		case c == 'l' || c == 'd':
			open++
			if open > budget {
				return 0, newError(DepthExceeded, base+pos, "nesting deeper than allowed")
			}
			pos++
		case c == 'e':
			if open == 0 {
				return 0, newError(UnterminatedComposite, base+pos, "'e' does not close any list or dictionary")
			}
			open--
			pos++
		case c == 'i':
			end := bytes.IndexByte(b[pos:], 'e')
			if end < 0 {
				return 0, newError(MalformedInteger, base+pos, "integer is missing the closing 'e'")
			}
			pos += end + 1
		case isDigit(c):
			colon := bytes.IndexByte(b[pos:], ':')
			if colon < 0 {
				return 0, newError(MissingDelimiter, base+pos, "no ':' after string length")
			}
			n, err := parseLength(b[pos : pos+colon])
			if err != nil {
				return 0, &Error{Kind: MalformedLength, Offset: base + pos, Msg: "invalid string length", Err: err}
			}
			data := pos + colon + 1
			if n > len(b)-data {
				return 0, newError(LengthMismatch, base+data, "declared %d bytes, only %d remain", n, len(b)-data)
			}
			pos = data + n
		default:
			return 0, newError(UnrecognizedFragment, base+pos, "unexpected byte %q", c)
		}

		if open == 0 {
			return pos, nil
		}
	}
}

// decodeChildren decodes every top-level value of a composite body. depth is
// the nesting level of the composite that owns body.
func (d *Decoder) decodeChildren(body []byte, base, depth int) ([]Token, error) {
	if depth > d.opts.MaxDepth {
		return nil, newError(DepthExceeded, base-1, "nesting deeper than %d", d.opts.MaxDepth)
	}

	spans, err := fragments(body, base, d.opts.MaxDepth-depth)
	if err != nil {
		return nil, err
	}
	logger.Tracef("composite at offset %d holds %d values", base-1, len(spans))

	children := make([]Token, 0, len(spans))
	for _, s := range spans {
		child, err := d.decode(body[s.Start:s.End], base+s.Start, depth)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// assembleDictionary pairs up decoded children as key, value, key, value.
func (d *Decoder) assembleDictionary(children []Token, offset int) (map[string]Token, error) {
	if len(children)%2 != 0 {
		return nil, newError(MalformedDictionary, offset, "odd number of elements (%d)", len(children))
	}

	dict := make(map[string]Token, len(children)/2)
	for i := 0; i < len(children); i += 2 {
		key, err := children[i].Text()
		if err != nil {
			return nil, &Error{
				Kind:   MalformedDictionary,
				Offset: children[i].span.Start,
				Msg:    "dictionary key is not a string",
				Err:    err,
			}
		}

		if _, seen := dict[key]; seen {
			switch d.opts.DuplicateKeys {
			case RejectDuplicates:
				return nil, newError(MalformedDictionary, children[i].span.Start, "duplicate key %q", key)
			case KeepFirst:
				logger.Debugf("dropping duplicate key %q at offset %d", key, children[i].span.Start)
				continue
			}
		}
		dict[key] = children[i+1]
	}
	return dict, nil
}
