package metainfo

import (
	"github.com/pkg/errors"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

func requireKind(dict bencode.Token, key string, kind bencode.Kind) (bencode.Token, error) {
	v, ok := dict.Lookup(key)
	if !ok {
		return bencode.Token{}, errors.Errorf("key %q does not exist in the dictionary", key)
	}
	if v.Kind() != kind {
		return bencode.Token{}, errors.Errorf("key %q holds a %s, want a %s", key, v.Kind(), kind)
	}
	return v, nil
}

func requireText(dict bencode.Token, key string) (string, error) {
	v, err := requireKind(dict, key, bencode.String)
	if err != nil {
		return "", err
	}
	return v.Text()
}

func requireInt(dict bencode.Token, key string) (int64, error) {
	v, err := requireKind(dict, key, bencode.Integer)
	if err != nil {
		return 0, err
	}
	return v.Int()
}

// optionalText returns "" for a missing key but still rejects a wrong kind.
func optionalText(dict bencode.Token, key string) (string, error) {
	if _, ok := dict.Lookup(key); !ok {
		return "", nil
	}
	return requireText(dict, key)
}

func optionalInt(dict bencode.Token, key string) (int64, error) {
	if _, ok := dict.Lookup(key); !ok {
		return 0, nil
	}
	return requireInt(dict, key)
}
