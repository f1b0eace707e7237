package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/speedyman08/peerlinker/cmd/pkg/prettyprint"
)

func newDecodeCmd(opts *rootOpts) *cobra.Command {
	var (
		file   string
		output string
	)

	decodeCmd := &cobra.Command{
		Use:   "decode [bencoded value]",
		Short: "Decode a bencoded value and print it",
		Example: `peerlinker decode l4:spam4:eggse
peerlinker decode --file ubuntu.torrent -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch {
			case file != "" && len(args) == 1:
				return errors.New("pass either a value or --file, not both")
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return errors.Wrapf(err, "failed to read %s", file)
				}
				data = b
			case len(args) == 1:
				data = []byte(args[0])
			default:
				return errors.New("nothing to decode")
			}

			tok, err := opts.decoder().Decode(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "text":
				return prettyprint.Fprint(out, tok)
			case "json":
				b, err := json.MarshalIndent(prettyprint.Plain(tok), "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(b))
				return err
			case "yaml":
				b, err := yaml.Marshal(prettyprint.Plain(tok))
				if err != nil {
					return err
				}
				_, err = out.Write(b)
				return err
			}
			return errInvalidFlag("output", output)
		},
	}

	decodeCmd.Flags().StringVarP(&file, "file", "f", "", "read the bencoded value from a file")
	decodeCmd.Flags().StringVarP(&output, "output", "o", "text", "output format, one of text, json or yaml")
	return decodeCmd
}
