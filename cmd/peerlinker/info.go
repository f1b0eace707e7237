package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/speedyman08/peerlinker/cmd/pkg/metainfo"
	"github.com/speedyman08/peerlinker/cmd/pkg/prettyprint"
)

func newInfoCmd(opts *rootOpts) *cobra.Command {
	var (
		showPieces bool
		dump       bool
	)

	infoCmd := &cobra.Command{
		Use:     "info <file.torrent>",
		Short:   "Print the metadata of a torrent file",
		Example: `peerlinker info fedora.torrent --pieces`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", args[0])
			}

			dec := opts.decoder()
			m, err := metainfo.Parse(data, dec)
			if err != nil {
				return errors.Wrapf(err, "failed to parse %s", args[0])
			}

			out := cmd.OutOrStdout()
			if dump {
				tok, err := dec.Decode(data)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "-- %s --\n", args[0])
				if err := prettyprint.Fprint(out, tok); err != nil {
					return err
				}
			}

			fmt.Fprintln(out, "Name:", m.Name)
			for _, u := range m.Trackers() {
				fmt.Fprintln(out, "Tracker URL:", u)
			}
			fmt.Fprintln(out, "Length:", m.TotalLength())
			fmt.Fprintln(out, "Info Hash:", m.InfoHashHex())
			fmt.Fprintln(out, "Piece Length:", m.PieceLength)
			if m.Comment != "" {
				fmt.Fprintln(out, "Comment:", m.Comment)
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"file", "size", "pieces"})
			for _, f := range m.Files {
				name := f.Name
				if f.Path != nil {
					name = path.Join(f.Path...)
				}
				table.Append([]string{name, strconv.FormatInt(f.Length, 10), strconv.FormatInt(f.NumPieces, 10)})
			}
			table.Render()

			if showPieces {
				fmt.Fprintln(out, "Piece Hashes:")
				for _, h := range m.Pieces {
					fmt.Fprintln(out, hex.EncodeToString(h[:]))
				}
			}
			return nil
		},
	}

	infoCmd.Flags().BoolVar(&showPieces, "pieces", false, "also print every piece hash")
	infoCmd.Flags().BoolVar(&dump, "dump", false, "also print the whole decoded file")
	return infoCmd
}
