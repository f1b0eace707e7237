package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type LogOptions struct {
	// Verbose turns on debug level.
	Verbose bool
	// Trace turns on trace level, which includes per-composite decode logs.
	Trace        bool
	DisableColor bool
	HideLogTime  bool
	// Output defaults to stderr so that command output on stdout stays clean.
	Output io.Writer
}

func Init(options LogOptions) {
	switch {
	case options.Trace:
		logrus.SetLevel(logrus.TraceLevel)
	case options.Verbose:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.SetReportCaller(options.Verbose || options.Trace)

	logrus.SetFormatter(&Formatter{
		DisableColor: options.DisableColor,
		HideLogTime:  options.HideLogTime,
	})

	if options.Output != nil {
		logrus.SetOutput(options.Output)
	} else {
		logrus.SetOutput(os.Stderr)
	}
}
