package bencode

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	var tests = []struct {
		name  string
		input string
		want  Token
	}{
		{
			name:  "empty list",
			input: "le",
			want:  NewList(),
		},
		{
			name:  "empty dictionary",
			input: "de",
			want:  NewDictionary(nil),
		},
		{
			name:  "zero length string",
			input: "0:",
			want:  NewString(""),
		},
		{
			name:  "list of strings",
			input: "l4:spam4:eggse",
			want:  NewList(NewString("spam"), NewString("eggs")),
		},
		{
			name:  "dictionary",
			input: "d3:cow3:moo4:spam4:eggse",
			want: NewDictionary(map[string]Token{
				"cow":  NewString("moo"),
				"spam": NewString("eggs"),
			}),
		},
		{
			name:  "nested list",
			input: "l4:spaml1:a1:bee",
			want:  NewList(NewString("spam"), NewList(NewString("a"), NewString("b"))),
		},
		{
			name:  "duplicate key keeps first",
			input: "d1:ai1e1:ai2ee",
			want:  NewDictionary(map[string]Token{"a": NewInteger(1)}),
		},
		{
			name:  "string payload holding delimiters",
			input: "l5:lie:ei7ee",
			want:  NewList(NewString("lie:e"), NewInteger(7)),
		},
		{
			name:  "dictionary of mixed values",
			input: "d4:infod6:lengthi42e4:name3:fooe4:listli1ei-2eee",
			want: NewDictionary(map[string]Token{
				"info": NewDictionary(map[string]Token{
					"length": NewInteger(42),
					"name":   NewString("foo"),
				}),
				"list": NewList(NewInteger(1), NewInteger(-2)),
			}),
		},
		{
			name:  "deep nesting",
			input: "lllli0eeeee",
			want:  NewList(NewList(NewList(NewList(NewInteger(0))))),
		},
		{
			name:  "binary string",
			input: "3:\x00\xffe",
			want:  NewBytes([]byte{0x00, 0xff, 'e'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %+v", got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	var tests = []struct {
		name  string
		input string
		want  *Error
	}{
		{"empty input", "", ErrUnrecognized},
		{"missing colon", "4spam", ErrMissingDelimiter},
		{"short string", "4:spa", ErrLengthMismatch},
		{"long string", "4:spamm", ErrLengthMismatch},
		{"bad length", "4x:spam", ErrMalformedLength},
		{"empty integer", "ie", ErrMalformedInteger},
		{"lone minus", "i-e", ErrMalformedInteger},
		{"letters in integer", "i12ae", ErrMalformedInteger},
		{"unterminated integer", "i42", ErrMalformedInteger},
		{"integer overflow", "i9223372036854775808e", ErrIntegerOverflow},
		{"negative overflow", "i-9223372036854775809e", ErrIntegerOverflow},
		{"unterminated list", "l4:spam", ErrUnterminatedComposite},
		{"unterminated nested list", "l4:spamli1ee", ErrUnterminatedComposite},
		{"stray close", "l4:spameei1ee", ErrUnrecognized},
		{"list missing close after integer", "li1e", ErrUnterminatedComposite},
		{"dictionary missing close after integer", "d3:fooi42e", ErrUnterminatedComposite},
		{"list missing close after string ending in e", "l1:e", ErrUnterminatedComposite},
		{"list missing close after string", "l1:x", ErrUnterminatedComposite},
		{"integer after empty list", "lei1e", ErrUnrecognized},
		{"two integers", "i1ei2e", ErrUnrecognized},
		{"odd dictionary", "d1:ai1ei2ee", ErrMalformedDictionary},
		{"integer key", "di1e1:ae", ErrMalformedDictionary},
		{"unknown byte", "x", ErrUnrecognized},
		{"unknown byte in list", "lxe", ErrUnrecognized},
		{"trailing data", "i1ei2", ErrUnrecognized},
		{"string runs past list", "l9:spame", ErrLengthMismatch},
		{"overflowing child", "li99999999999999999999ee", ErrIntegerOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want kind %s", err, tt.want.Kind)
		})
	}
}

func TestDecodeErrorOffsets(t *testing.T) {
	var tests = []struct {
		input  string
		kind   ErrorKind
		offset int
	}{
		{"l4:spami1xee", MalformedInteger, 8},
		{"d1:ad1:bi1ee", UnterminatedComposite, 0},
		{"lei1e", UnrecognizedFragment, 2},
		{"i1ei2e", UnrecognizedFragment, 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.offset, e.Offset)
		})
	}
}

func TestNonStringKeyIsTypeMismatch(t *testing.T) {
	_, err := Decode([]byte("dli1ee1:ae"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedDictionary))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestDuplicateKeyPolicies(t *testing.T) {
	input := []byte("d1:ai1e1:bi0e1:ai2ee")

	got, err := NewDecoder(Options{DuplicateKeys: KeepFirst}).Decode(input)
	require.NoError(t, err)
	v, ok := got.Lookup("a")
	require.True(t, ok)
	assert.True(t, NewInteger(1).Equal(v))

	got, err = NewDecoder(Options{DuplicateKeys: KeepLast}).Decode(input)
	require.NoError(t, err)
	v, ok = got.Lookup("a")
	require.True(t, ok)
	assert.True(t, NewInteger(2).Equal(v))

	_, err = NewDecoder(Options{DuplicateKeys: RejectDuplicates}).Decode(input)
	assert.True(t, errors.Is(err, ErrMalformedDictionary))
}

func TestParseDuplicateKeyPolicy(t *testing.T) {
	for _, p := range []DuplicateKeyPolicy{KeepFirst, KeepLast, RejectDuplicates} {
		got, err := ParseDuplicateKeyPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseDuplicateKeyPolicy("newest")
	assert.Error(t, err)
}

func TestMaxDepth(t *testing.T) {
	dec := NewDecoder(Options{MaxDepth: 3})

	_, err := dec.Decode([]byte("llli1eeee"))
	assert.NoError(t, err)

	_, err = dec.Decode([]byte("lllleeee"))
	assert.True(t, errors.Is(err, ErrDepthExceeded), "got %v", err)

	_, err = dec.Decode([]byte("ld1:alleeee"))
	assert.True(t, errors.Is(err, ErrDepthExceeded), "got %v", err)
}

func TestAdversarialNesting(t *testing.T) {
	n := 100000
	input := strings.Repeat("l", n) + strings.Repeat("e", n)

	_, err := Decode([]byte(input))
	assert.True(t, errors.Is(err, ErrDepthExceeded))
}

func TestWideList(t *testing.T) {
	n := 50000
	input := "l" + strings.Repeat("i7e4:spam", n) + "e"

	got, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, 2*n, got.Len())
}

func TestDecodeIsIdempotent(t *testing.T) {
	input := []byte("d4:listl1:a1:bi3ee3:numi-9e3:str5:helloe")

	first, err := Decode(input)
	require.NoError(t, err)
	second, err := Decode(input)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	input := []byte("l4:spame")
	got, err := Decode(input)
	require.NoError(t, err)

	copy(input, "l4:xxxxe")
	items, err := got.List()
	require.NoError(t, err)
	s, err := items[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "spam", s)
}

func TestSpans(t *testing.T) {
	input := []byte("d4:infod4:name1:xe3:numi5ee")
	got, err := Decode(input)
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 0, End: len(input)}, got.Span())

	info, ok := got.Lookup("info")
	require.True(t, ok)
	assert.Equal(t, "d4:name1:xe", string(input[info.Span().Start:info.Span().End]))

	num, ok := got.Lookup("num")
	require.True(t, ok)
	assert.Equal(t, Span{Start: 23, End: 26}, num.Span())
}

func TestNilDecoderUsesDefaults(t *testing.T) {
	var dec *Decoder
	got, err := dec.Decode([]byte("i3e"))
	require.NoError(t, err)
	assert.True(t, NewInteger(3).Equal(got))
}
