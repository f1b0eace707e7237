package tracker

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// AnnounceAll announces to every tracker concurrently and merges the
// answers. Peers are deduplicated, seeders and leechers are the largest
// counts reported, and the interval is the shortest one.
//
// When some trackers fail the merged response is returned together with a
// multierror describing the failures. It returns a nil response only when
// every tracker failed.
func (c *Client) AnnounceAll(ctx context.Context, urls []string, req Request) (*Response, error) {
	if len(urls) == 0 {
		return nil, errors.New("no trackers to announce to")
	}

	results := make([]*Response, len(urls))
	failures := make([]error, len(urls))

	// Goroutines never fail the group: a failing tracker must not cancel the
	// others, and each failure is kept in failures. The group only waits.
	var eg errgroup.Group
	for i, u := range urls {
		i, u := i, u
		eg.Go(func() error {
			resp, err := c.Announce(ctx, u, req)
			if err != nil {
				logger.Warnf("tracker %s failed: %v", u, err)
				failures[i] = errors.Wrapf(err, "tracker %s", u)
				return nil
			}
			results[i] = resp
			return nil
		})
	}
	_ = eg.Wait()

	var multiE *multierror.Error
	for _, err := range failures {
		if err != nil {
			multiE = multierror.Append(multiE, err)
		}
	}

	return merge(results), multiE.ErrorOrNil()
}

func merge(results []*Response) *Response {
	var merged *Response
	seen := make(map[string]bool)

	for _, r := range results {
		if r == nil {
			continue
		}
		if merged == nil {
			merged = &Response{Interval: r.Interval}
		}
		if r.Interval > 0 && (merged.Interval == 0 || r.Interval < merged.Interval) {
			merged.Interval = r.Interval
		}
		if r.Seeders > merged.Seeders {
			merged.Seeders = r.Seeders
		}
		if r.Leechers > merged.Leechers {
			merged.Leechers = r.Leechers
		}
		if merged.WarningMessage == "" {
			merged.WarningMessage = r.WarningMessage
		}
		for _, p := range r.Peers {
			if key := p.String(); !seen[key] {
				seen[key] = true
				merged.Peers = append(merged.Peers, p)
			}
		}
	}
	return merged
}
