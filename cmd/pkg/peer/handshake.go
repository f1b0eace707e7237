// Package peer opens BitTorrent peer wire connections and performs the
// initial handshake.
package peer

import (
	"bytes"

	"github.com/pkg/errors"
)

const (
	Protocol = "BitTorrent protocol"
	// HandshakeSize is 1 + len(Protocol) + 8 reserved + 20 info hash + 20 peer id.
	HandshakeSize = 1 + len(Protocol) + 8 + 20 + 20
)

// Handshake is the first message either side sends on a peer connection.
type Handshake struct {
	// Reserved carries extension bits. We set none.
	Reserved [8]byte
	InfoHash [20]byte
	PeerID   [20]byte
}

func (h Handshake) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, HandshakeSize))
	buf.WriteByte(byte(len(Protocol)))
	buf.WriteString(Protocol)
	buf.Write(h.Reserved[:])
	buf.Write(h.InfoHash[:])
	buf.Write(h.PeerID[:])
	return buf.Bytes(), nil
}

// ParseHandshake reads a handshake from exactly HandshakeSize bytes.
func ParseHandshake(b []byte) (Handshake, error) {
	var h Handshake
	if len(b) != HandshakeSize {
		return h, errors.Errorf("handshake is %d bytes, want %d", len(b), HandshakeSize)
	}
	if int(b[0]) != len(Protocol) || string(b[1:1+len(Protocol)]) != Protocol {
		return h, errors.Errorf("unknown protocol %q", b[1:1+len(Protocol)])
	}

	rest := b[1+len(Protocol):]
	copy(h.Reserved[:], rest[:8])
	copy(h.InfoHash[:], rest[8:28])
	copy(h.PeerID[:], rest[28:48])
	return h, nil
}
