package tracker

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"net"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// UDP tracker protocol (BEP 15).
const (
	udpProtocolID = 0x41727101980

	actionConnect  = 0
	actionAnnounce = 1
	actionError    = 3

	udpPacketSize = 2048
)

var udpEvents = map[Event]uint32{
	EventNone:      0,
	EventCompleted: 1,
	EventStarted:   2,
	EventStopped:   3,
}

func (c *Client) announceUDP(ctx context.Context, u *url.URL, req Request) (*Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", u.Host)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", u.Host)
	}
	defer conn.Close()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "failed to set deadline")
	}

	// 1. Connect Phase
	transactionID := rand.Uint32()
	connectReq := new(bytes.Buffer)
	binary.Write(connectReq, binary.BigEndian, uint64(udpProtocolID))
	binary.Write(connectReq, binary.BigEndian, uint32(actionConnect))
	binary.Write(connectReq, binary.BigEndian, transactionID)

	resp, err := exchange(conn, connectReq.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := checkHeader(resp, 16, actionConnect, transactionID); err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	connectionID := binary.BigEndian.Uint64(resp[8:16])

	// 2. Announce Phase
	numWant := int32(-1)
	if req.NumWant > 0 {
		numWant = int32(req.NumWant)
	}
	transactionID = rand.Uint32()
	announceReq := new(bytes.Buffer)
	binary.Write(announceReq, binary.BigEndian, connectionID)
	binary.Write(announceReq, binary.BigEndian, uint32(actionAnnounce))
	binary.Write(announceReq, binary.BigEndian, transactionID)
	announceReq.Write(req.InfoHash[:])
	announceReq.Write(req.PeerID[:])
	binary.Write(announceReq, binary.BigEndian, req.Downloaded)
	binary.Write(announceReq, binary.BigEndian, req.Left)
	binary.Write(announceReq, binary.BigEndian, req.Uploaded)
	binary.Write(announceReq, binary.BigEndian, udpEvents[req.Event])
	binary.Write(announceReq, binary.BigEndian, uint32(0)) // IP address: default
	binary.Write(announceReq, binary.BigEndian, rand.Uint32())
	binary.Write(announceReq, binary.BigEndian, numWant)
	binary.Write(announceReq, binary.BigEndian, req.Port)

	resp, err = exchange(conn, announceReq.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "announce")
	}
	if err := checkHeader(resp, 20, actionAnnounce, transactionID); err != nil {
		return nil, errors.Wrap(err, "announce")
	}

	peers, err := compactPeers(resp[20:], compactPeerSize)
	if err != nil {
		return nil, err
	}
	return &Response{
		Interval: time.Duration(binary.BigEndian.Uint32(resp[8:12])) * time.Second,
		Leechers: int64(binary.BigEndian.Uint32(resp[12:16])),
		Seeders:  int64(binary.BigEndian.Uint32(resp[16:20])),
		Peers:    peers,
	}, nil
}

func exchange(conn net.Conn, packet []byte) ([]byte, error) {
	if _, err := conn.Write(packet); err != nil {
		return nil, errors.Wrap(err, "failed to write request")
	}
	resp := make([]byte, udpPacketSize)
	n, err := conn.Read(resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	return resp[:n], nil
}

// checkHeader validates the action and transaction id that start every
// response. Error responses carry a message after the header.
func checkHeader(resp []byte, minLen int, action, transactionID uint32) error {
	if len(resp) < 8 {
		return errors.Errorf("response too short (%d bytes)", len(resp))
	}
	if got := binary.BigEndian.Uint32(resp[4:8]); got != transactionID {
		return errors.Errorf("transaction id mismatch")
	}

	got := binary.BigEndian.Uint32(resp[0:4])
	if got == actionError {
		return errors.Errorf("tracker failure: %s", resp[8:])
	}
	if got != action {
		return errors.Errorf("unexpected action %d", got)
	}
	if len(resp) < minLen {
		return errors.Errorf("response too short (%d bytes)", len(resp))
	}
	return nil
}
