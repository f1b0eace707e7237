package tracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackerServer(t *testing.T, body string) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestAnnounceAll(t *testing.T) {
	one := trackerServer(t, "d8:completei1e8:intervali600e5:peers12:"+
		"\x01\x02\x03\x04\x00\x01"+"\x05\x06\x07\x08\x00\x02"+"e")
	two := trackerServer(t, "d8:completei9e8:intervali300e5:peers12:"+
		"\x01\x02\x03\x04\x00\x01"+"\x09\x09\x09\x09\x00\x03"+"e")
	broken := trackerServer(t, "d14:failure reason4:nopee")

	resp, err := NewClient(time.Second, "", nil).AnnounceAll(context.Background(), []string{one, broken, two}, testRequest())
	require.NotNil(t, resp)
	require.Error(t, err)

	var multiE *multierror.Error
	require.True(t, errors.As(err, &multiE))
	assert.Len(t, multiE.Errors, 1)
	assert.Contains(t, err.Error(), "nope")

	assert.Equal(t, int64(9), resp.Seeders)
	assert.Equal(t, 5*time.Minute, resp.Interval)

	var peers []string
	for _, p := range resp.Peers {
		peers = append(peers, p.String())
	}
	assert.Equal(t, []string{"1.2.3.4:1", "5.6.7.8:2", "9.9.9.9:3"}, peers)
}

func TestAnnounceAllEveryTrackerFails(t *testing.T) {
	broken := trackerServer(t, "d14:failure reason4:nopee")

	resp, err := NewClient(time.Second, "", nil).AnnounceAll(context.Background(), []string{broken, "ftp://x"}, testRequest())
	assert.Nil(t, resp)
	assert.Error(t, err)

	_, err = NewClient(time.Second, "", nil).AnnounceAll(context.Background(), nil, testRequest())
	assert.Error(t, err)
}
