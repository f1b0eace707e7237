package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
	"github.com/speedyman08/peerlinker/cmd/pkg/config"
	"github.com/speedyman08/peerlinker/cmd/pkg/logger"
)

const version = "0.0.1"

const (
	colorModeNever  = "never"
	colorModeAlways = "always"
)

type rootOpts struct {
	cfgFile   string
	debug     bool
	trace     bool
	colorMode string

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Errorf("peerlinker-%s: %v", version, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	rootCmd := &cobra.Command{
		Use:           "peerlinker",
		Short:         "Inspect bencoded data, torrent files and trackers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "turn on debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "turn on trace logging, including decoder internals")
	rootCmd.PersistentFlags().StringVar(&opts.colorMode, "color", colorModeAlways, "log color mode, one of never or always")

	rootCmd.AddCommand(
		newDecodeCmd(opts),
		newInfoCmd(opts),
		newPeersCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func (o *rootOpts) init() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if o.colorMode != colorModeNever && o.colorMode != colorModeAlways {
		return errInvalidFlag("color", o.colorMode)
	}

	logger.Init(logger.LogOptions{
		Verbose:      o.debug || cfg.Log.Verbose,
		Trace:        o.trace,
		DisableColor: o.colorMode == colorModeNever || cfg.Log.DisableColor,
	})
	return nil
}

func (o *rootOpts) decoder() *bencode.Decoder {
	return bencode.NewDecoder(o.cfg.DecoderOptions())
}

func errInvalidFlag(name, value string) error {
	return errors.Errorf("invalid value %q for --%s", value, name)
}
