package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, bencode.DefaultMaxDepth, c.Decoder.MaxDepth)
	assert.Equal(t, "first", c.Decoder.DuplicateKeys)
	assert.Equal(t, 6881, c.Tracker.Port)
	assert.Equal(t, 50, c.Tracker.NumWant)
	assert.Equal(t, 15*time.Second, c.Tracker.Timeout)
	assert.Equal(t, "0.0.1", c.Client.Version)
	assert.Equal(t, PeerConfig{ConnectTimeout: 10 * time.Second, IOTimeout: 20 * time.Second, Concurrency: 20}, c.Peer)
	assert.Equal(t, bencode.Options{MaxDepth: bencode.DefaultMaxDepth, DuplicateKeys: bencode.KeepFirst}, c.DecoderOptions())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peerlinker.yaml")
	content := `decoder:
  maxDepth: 16
  duplicateKeys: reject
tracker:
  port: 7000
  timeout: 3s
peer:
  concurrency: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bencode.Options{MaxDepth: 16, DuplicateKeys: bencode.RejectDuplicates}, c.DecoderOptions())
	assert.Equal(t, 7000, c.Tracker.Port)
	assert.Equal(t, 3*time.Second, c.Tracker.Timeout)
	assert.Equal(t, "peerlinker/1.0", c.Tracker.UserAgent)
	assert.Equal(t, 5, c.Peer.Concurrency)
	assert.Equal(t, 10*time.Second, c.Peer.ConnectTimeout)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PEERLINKER_DECODER_DUPLICATEKEYS", "last")
	t.Setenv("PEERLINKER_TRACKER_NUMWANT", "10")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, bencode.KeepLast, c.DecoderOptions().DuplicateKeys)
	assert.Equal(t, 10, c.Tracker.NumWant)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decoder:\n  duplicateKeys: newest\n"), 0600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadPeerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("peer:\n  concurrency: 0\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "peer.concurrency")
}
