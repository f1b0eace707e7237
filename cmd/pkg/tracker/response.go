package tracker

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

const (
	compactPeerSize  = 6
	compactPeer6Size = 18
)

// ParseResponse decodes the bencoded body of an HTTP announce response.
// dec may be nil.
func ParseResponse(body []byte, dec *bencode.Decoder) (*Response, error) {
	root, err := dec.Decode(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode tracker response")
	}
	if root.Kind() != bencode.Dictionary {
		return nil, errors.Errorf("tracker response is a %s, not a dictionary", root.Kind())
	}

	if v, ok := root.Lookup("failure reason"); ok {
		reason, _ := v.Text()
		return nil, errors.Errorf("tracker failure: %s", reason)
	}

	resp := &Response{}
	if v, ok := root.Lookup("warning message"); ok {
		resp.WarningMessage, _ = v.Text()
		logger.Warnf("tracker warning: %s", resp.WarningMessage)
	}

	interval, err := optionalInt(root, "interval")
	if err != nil {
		return nil, err
	}
	resp.Interval = time.Duration(interval) * time.Second

	if resp.Seeders, err = optionalInt(root, "complete"); err != nil {
		return nil, err
	}
	if resp.Leechers, err = optionalInt(root, "incomplete"); err != nil {
		return nil, err
	}

	peers, ok := root.Lookup("peers")
	if !ok {
		return nil, errors.New("tracker response has no peers")
	}
	switch peers.Kind() {
	case bencode.String:
		raw, _ := peers.Bytes()
		if resp.Peers, err = compactPeers(raw, compactPeerSize); err != nil {
			return nil, err
		}
	case bencode.List:
		if resp.Peers, err = dictPeers(peers); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("peers is a %s", peers.Kind())
	}

	if v, ok := root.Lookup("peers6"); ok {
		raw, err := v.Bytes()
		if err != nil {
			return nil, errors.Wrap(err, "peers6")
		}
		peers6, err := compactPeers(raw, compactPeer6Size)
		if err != nil {
			return nil, err
		}
		resp.Peers = append(resp.Peers, peers6...)
	}
	return resp, nil
}

// compactPeers splits the compact form: an IP address followed by a
// big-endian port, repeated.
func compactPeers(raw []byte, size int) ([]Peer, error) {
	if len(raw)%size != 0 {
		return nil, errors.Errorf("compact peers length %d is not a multiple of %d", len(raw), size)
	}

	ipLen := size - 2
	peers := make([]Peer, 0, len(raw)/size)
	for i := 0; i < len(raw); i += size {
		ip := make(net.IP, ipLen)
		copy(ip, raw[i:i+ipLen])
		peers = append(peers, Peer{
			IP:   ip,
			Port: binary.BigEndian.Uint16(raw[i+ipLen : i+size]),
		})
	}
	return peers, nil
}

func dictPeers(list bencode.Token) ([]Peer, error) {
	items, _ := list.List()
	peers := make([]Peer, 0, len(items))
	for i, item := range items {
		ipTok, ok := item.Lookup("ip")
		if !ok {
			return nil, errors.Errorf("peers[%d] has no ip", i)
		}
		host, err := ipTok.Text()
		if err != nil {
			return nil, errors.Wrapf(err, "peers[%d].ip", i)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			return nil, errors.Errorf("peers[%d].ip %q is not an address", i, host)
		}

		port, err := optionalInt(item, "port")
		if err != nil {
			return nil, errors.Wrapf(err, "peers[%d]", i)
		}
		if port <= 0 || port > 65535 {
			return nil, errors.Errorf("peers[%d].port %d out of range", i, port)
		}
		peers = append(peers, Peer{IP: ip, Port: uint16(port)})
	}
	return peers, nil
}

func optionalInt(dict bencode.Token, key string) (int64, error) {
	v, ok := dict.Lookup(key)
	if !ok {
		return 0, nil
	}
	n, err := v.Int()
	return n, errors.Wrap(err, key)
}
