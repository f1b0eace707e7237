package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/speedyman08/peerlinker/cmd/pkg/metainfo"
	"github.com/speedyman08/peerlinker/cmd/pkg/peer"
	"github.com/speedyman08/peerlinker/cmd/pkg/tracker"
)

func newPeersCmd(opts *rootOpts) *cobra.Command {
	var handshake bool

	peersCmd := &cobra.Command{
		Use:     "peers <file.torrent>",
		Short:   "Announce to the torrent's trackers and list the peers they return",
		Example: `peerlinker peers fedora.torrent
peerlinker peers --handshake fedora.torrent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec := opts.decoder()
			m, err := metainfo.Load(args[0], dec)
			if err != nil {
				return err
			}

			v, err := tracker.ParseVersion(opts.cfg.Client.Version)
			if err != nil {
				return err
			}
			peerID, err := tracker.GeneratePeerID(v)
			if err != nil {
				return err
			}

			tc := opts.cfg.Tracker
			req := tracker.Request{
				InfoHash: m.InfoHash,
				PeerID:   peerID,
				Port:     uint16(tc.Port),
				Left:     m.TotalLength(),
				NumWant:  tc.NumWant,
				Event:    tracker.EventStarted,
				Compact:  true,
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			announceCtx, cancel := context.WithTimeout(ctx, tc.Timeout)
			defer cancel()

			client := tracker.NewClient(tc.Timeout, tc.UserAgent, dec)
			resp, err := client.AnnounceAll(announceCtx, m.Trackers(), req)
			if resp == nil {
				return err
			}
			if err != nil {
				logrus.Warnf("some trackers failed: %v", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seeders: %d\nLeechers: %d\nInterval: %s\n", resp.Seeders, resp.Leechers, resp.Interval)

			table := tablewriter.NewWriter(out)
			if !handshake {
				table.SetHeader([]string{"ip", "port"})
				for _, p := range resp.Peers {
					table.Append([]string{p.IP.String(), strconv.Itoa(int(p.Port))})
				}
				table.Render()
				return nil
			}

			pc := opts.cfg.Peer
			dialer := peer.NewDialer(pc.ConnectTimeout, pc.IOTimeout, pc.Concurrency)
			local := peer.Handshake{InfoHash: m.InfoHash, PeerID: peerID}
			results := dialer.HandshakeAll(ctx, resp.Peers, local)

			table.SetHeader([]string{"ip", "port", "handshake"})
			table.SetAutoWrapText(false)
			for _, r := range results {
				status := "ok " + printablePeerID(r.Remote.PeerID)
				if r.Err != nil {
					status = r.Err.Error()
				}
				table.Append([]string{r.Peer.IP.String(), strconv.Itoa(int(r.Peer.Port)), status})
			}
			table.Render()
			fmt.Fprintf(out, "Responsive: %d of %d\n", len(peer.Responsive(results)), len(results))
			return nil
		},
	}
	peersCmd.Flags().BoolVar(&handshake, "handshake", false, "handshake every returned peer and report which ones answer")
	return peersCmd
}

// printablePeerID returns id as text, or as hex when it holds non-printable
// bytes.
func printablePeerID(id [20]byte) string {
	for _, c := range id {
		if c < 0x20 || c > 0x7e {
			return hex.EncodeToString(id[:])
		}
	}
	return string(id[:])
}
