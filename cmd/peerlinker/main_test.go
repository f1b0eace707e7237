package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedyman08/peerlinker/cmd/pkg/peer"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--color", "never"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func bstr(s string) string {
	return strconv.Itoa(len(s)) + ":" + s
}

func writeTorrent(t *testing.T, announce string) string {
	info := "d" + bstr("length") + "i40e" + bstr("name") + bstr("file.iso") +
		bstr("piece length") + "i16e" + bstr("pieces") + bstr(strings.Repeat("\xab", 60)) + "e"
	data := "d" + bstr("announce") + bstr(announce) + bstr("info") + info + "e"

	path := filepath.Join(t.TempDir(), "file.torrent")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return path
}

func TestDecodeCommand(t *testing.T) {
	out, err := run(t, "decode", "d3:cow3:moo4:spaml1:a1:bee")
	require.NoError(t, err)
	assert.Equal(t, "cow: moo\nspam: list(2)\n\t1: a\n\t2: b\n", out)

	out, err = run(t, "decode", "-o", "json", "l4:spami42ee")
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"spam\",\n  42\n]\n", out)

	out, err = run(t, "decode", "-o", "yaml", "d1:ai1ee")
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", out)
}

func TestDecodeCommandErrors(t *testing.T) {
	_, err := run(t, "decode", "4spam")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing delimiter")

	_, err = run(t, "decode", "-o", "xml", "i1e")
	assert.Error(t, err)

	_, err = run(t, "decode")
	assert.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	path := writeTorrent(t, "http://tracker.example/announce")

	out, err := run(t, "info", "--pieces", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Tracker URL: http://tracker.example/announce")
	assert.Contains(t, out, "Length: 40")
	assert.Contains(t, out, "Piece Length: 16")
	assert.Contains(t, out, "file.iso")
	assert.Equal(t, 3, strings.Count(out, strings.Repeat("ab", 20)))
}

func TestPeersCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d8:completei4e10:incompletei1e8:intervali60e5:peers6:\x0a\x00\x00\x07\x1a\xe1e"))
	}))
	defer srv.Close()

	out, err := run(t, "peers", writeTorrent(t, srv.URL+"/announce"))
	require.NoError(t, err)
	assert.Contains(t, out, "Seeders: 4")
	assert.Contains(t, out, "10.0.0.7")
	assert.Contains(t, out, "6881")
}

func TestPeersCommandHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, peer.HandshakeSize)
			if _, err := io.ReadFull(conn, buf); err == nil {
				copy(buf[48:], "-XX0001-remotepeer01")
				_, _ = conn.Write(buf)
			}
			_ = conn.Close()
		}
	}()

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := closed.Addr().(*net.TCPAddr).Port
	require.NoError(t, closed.Close())

	compact := func(port int) string {
		b := []byte{127, 0, 0, 1, 0, 0}
		binary.BigEndian.PutUint16(b[4:], uint16(port))
		return string(b)
	}
	peers := compact(ln.Addr().(*net.TCPAddr).Port) + compact(closedPort)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("d8:intervali60e5:peers" + bstr(peers) + "e"))
	}))
	defer srv.Close()

	t.Setenv("PEERLINKER_PEER_CONNECTTIMEOUT", "1s")
	t.Setenv("PEERLINKER_PEER_IOTIMEOUT", "1s")
	out, err := run(t, "peers", "--handshake", writeTorrent(t, srv.URL+"/announce"))
	require.NoError(t, err)
	assert.Contains(t, out, "ok -XX0001-remotepeer01")
	assert.Contains(t, out, "failed to connect")
	assert.Contains(t, out, "Responsive: 1 of 2")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "peerlinker "+version+"\n", out)
}
