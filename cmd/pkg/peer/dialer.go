package peer

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/speedyman08/peerlinker/cmd/pkg/tracker"
)

var logger = logrus.WithField("component", "peer")

const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultIOTimeout      = 20 * time.Second
	DefaultConcurrency    = 20
)

type Dialer struct {
	ConnectTimeout time.Duration
	// IOTimeout bounds writing our handshake and reading the answer.
	IOTimeout   time.Duration
	Concurrency int
}

func NewDialer(connectTimeout, ioTimeout time.Duration, concurrency int) *Dialer {
	d := &Dialer{
		ConnectTimeout: connectTimeout,
		IOTimeout:      ioTimeout,
		Concurrency:    concurrency,
	}
	if d.ConnectTimeout <= 0 {
		d.ConnectTimeout = DefaultConnectTimeout
	}
	if d.IOTimeout <= 0 {
		d.IOTimeout = DefaultIOTimeout
	}
	if d.Concurrency <= 0 {
		d.Concurrency = DefaultConcurrency
	}
	return d
}

// Handshake connects to addr, sends local and reads the remote handshake.
// The remote side must answer for the same info hash.
func (d *Dialer) Handshake(ctx context.Context, addr string, local Handshake) (Handshake, error) {
	nd := net.Dialer{Timeout: d.ConnectTimeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Handshake{}, errors.Wrapf(err, "failed to connect to %s", addr)
	}
	defer conn.Close()

	deadline := time.Now().Add(d.IOTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Handshake{}, errors.Wrap(err, "failed to set deadline")
	}

	packet, _ := local.MarshalBinary()
	if _, err := conn.Write(packet); err != nil {
		return Handshake{}, errors.Wrap(err, "failed to send handshake")
	}

	resp := make([]byte, HandshakeSize)
	if _, err := io.ReadFull(conn, resp); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Handshake{}, errors.New("peer closed the connection, it probably does not have this torrent")
		}
		return Handshake{}, errors.Wrap(err, "failed to read handshake")
	}

	remote, err := ParseHandshake(resp)
	if err != nil {
		return Handshake{}, err
	}
	if remote.InfoHash != local.InfoHash {
		return Handshake{}, errors.Errorf("peer answered for info hash %x", remote.InfoHash)
	}
	return remote, nil
}

type Result struct {
	Peer   tracker.Peer
	Remote Handshake
	Err    error
}

// HandshakeAll handshakes every peer, at most Concurrency at a time. Results
// are in the order of peers.
func (d *Dialer) HandshakeAll(ctx context.Context, peers []tracker.Peer, local Handshake) []Result {
	results := make([]Result, len(peers))

	var eg errgroup.Group
	eg.SetLimit(d.Concurrency)
	for i, p := range peers {
		i, p := i, p
		eg.Go(func() error {
			remote, err := d.Handshake(ctx, p.String(), local)
			if err != nil {
				logger.Debugf("handshake with %s failed: %v", p, err)
			} else {
				logger.Debugf("handshake with %s succeeded", p)
			}
			results[i] = Result{Peer: p, Remote: remote, Err: err}
			// a failed handshake only marks that peer
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// Responsive returns the peers that completed a handshake.
func Responsive(results []Result) []tracker.Peer {
	var good []tracker.Peer
	for _, r := range results {
		if r.Err == nil {
			good = append(good, r.Peer)
		}
	}
	return good
}
