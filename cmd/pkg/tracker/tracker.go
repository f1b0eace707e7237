// Package tracker announces to BitTorrent trackers over HTTP and UDP.
package tracker

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

var logger = logrus.WithField("component", "tracker")

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "peerlinker/1.0"
)

// maxResponseSize caps how much of an HTTP tracker response is read.
const maxResponseSize = 4 << 20

type Event string

const (
	EventNone      Event = ""
	EventStarted   Event = "started"
	EventStopped   Event = "stopped"
	EventCompleted Event = "completed"
)

type Request struct {
	InfoHash   [20]byte
	PeerID     PeerID
	Port       uint16
	Uploaded   int64
	Downloaded int64
	Left       int64
	// NumWant of zero lets the tracker pick.
	NumWant int
	Event   Event
	// Compact asks HTTP trackers for the 6-byte peer form. UDP replies are
	// always compact.
	Compact bool
}

type Peer struct {
	IP   net.IP
	Port uint16
}

func (p Peer) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(int(p.Port)))
}

type Response struct {
	Interval       time.Duration
	Seeders        int64
	Leechers       int64
	Peers          []Peer
	WarningMessage string
}

type Client struct {
	HTTP      *http.Client
	Decoder   *bencode.Decoder
	UserAgent string
	// Timeout bounds a whole UDP exchange. HTTP uses HTTP.Timeout.
	Timeout time.Duration
}

// NewClient builds a client whose HTTP and UDP requests share timeout. dec
// may be nil.
func NewClient(timeout time.Duration, userAgent string, dec *bencode.Decoder) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		Decoder:   dec,
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

// Announce sends req to one tracker. The scheme of announceURL picks the
// protocol.
func (c *Client) Announce(ctx context.Context, announceURL string, req Request) (*Response, error) {
	u, err := url.Parse(announceURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse announce url %s", announceURL)
	}

	logger.Debugf("announcing to %s", u.Redacted())
	switch u.Scheme {
	case "http", "https":
		return c.announceHTTP(ctx, u, req)
	case "udp":
		return c.announceUDP(ctx, u, req)
	}
	return nil, errors.Errorf("unsupported tracker scheme %q", u.Scheme)
}

func (c *Client) announceHTTP(ctx context.Context, u *url.URL, req Request) (*Response, error) {
	full := *u
	full.RawQuery = announceQuery(u.RawQuery, req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, full.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build announce request")
	}
	httpReq.Header.Set("User-Agent", c.UserAgent)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "announce request failed")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warnf("failed to close tracker response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("tracker answered %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tracker response")
	}
	return ParseResponse(body, c.Decoder)
}

// announceQuery appends the announce parameters to an existing query.
// info_hash and peer_id are raw bytes, so every byte outside the unreserved
// set is percent-encoded by hand.
func announceQuery(existing string, req Request) string {
	params := url.Values{}
	params.Set("port", strconv.Itoa(int(req.Port)))
	params.Set("uploaded", strconv.FormatInt(req.Uploaded, 10))
	params.Set("downloaded", strconv.FormatInt(req.Downloaded, 10))
	params.Set("left", strconv.FormatInt(req.Left, 10))
	if req.Compact {
		params.Set("compact", "1")
	} else {
		params.Set("compact", "0")
	}
	if req.NumWant > 0 {
		params.Set("numwant", strconv.Itoa(req.NumWant))
	}
	if req.Event != EventNone {
		params.Set("event", string(req.Event))
	}

	var b strings.Builder
	if existing != "" {
		b.WriteString(existing)
		b.WriteByte('&')
	}
	b.WriteString("info_hash=")
	b.WriteString(escapeBytes(req.InfoHash[:]))
	b.WriteString("&peer_id=")
	b.WriteString(escapeBytes(req.PeerID[:]))
	b.WriteByte('&')
	b.WriteString(params.Encode())
	return b.String()
}

func escapeBytes(raw []byte) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for _, c := range raw {
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}
