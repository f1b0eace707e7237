// Package config loads peerlinker settings from defaults, an optional config
// file and PEERLINKER_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/speedyman08/peerlinker/cmd/pkg/bencode"
)

const (
	DefaultFileName = ".peerlinker.yaml"
	envPrefix       = "PEERLINKER"
)

type Config struct {
	Decoder DecoderConfig `mapstructure:"decoder"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Peer    PeerConfig    `mapstructure:"peer"`
	Client  ClientConfig  `mapstructure:"client"`
	Log     LogConfig     `mapstructure:"log"`
}

type DecoderConfig struct {
	MaxDepth int `mapstructure:"maxDepth"`
	// DuplicateKeys is one of first, last or reject.
	DuplicateKeys string `mapstructure:"duplicateKeys"`
}

type TrackerConfig struct {
	Port      int           `mapstructure:"port"`
	NumWant   int           `mapstructure:"numWant"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"userAgent"`
}

type PeerConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	IOTimeout      time.Duration `mapstructure:"ioTimeout"`
	// Concurrency is how many handshakes run at once.
	Concurrency int `mapstructure:"concurrency"`
}

type ClientConfig struct {
	// Version is major.minor.build and goes into the peer id.
	Version string `mapstructure:"version"`
}

type LogConfig struct {
	Verbose      bool `mapstructure:"verbose"`
	DisableColor bool `mapstructure:"disableColor"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("decoder.maxDepth", bencode.DefaultMaxDepth)
	v.SetDefault("decoder.duplicateKeys", bencode.KeepFirst.String())
	v.SetDefault("tracker.port", 6881)
	v.SetDefault("tracker.numWant", 50)
	v.SetDefault("tracker.timeout", 15*time.Second)
	v.SetDefault("tracker.userAgent", "peerlinker/1.0")
	v.SetDefault("peer.connectTimeout", 10*time.Second)
	v.SetDefault("peer.ioTimeout", 20*time.Second)
	v.SetDefault("peer.concurrency", 20)
	v.SetDefault("client.version", "0.0.1")
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.disableColor", false)
}

// DefaultPath is $HOME/.peerlinker.yaml, or the bare file name when the home
// directory cannot be found.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads the config file at path. An empty path means DefaultPath, and
// a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	} else if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || isNotExist(err)) {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Decoder.MaxDepth <= 0 {
		return errors.Errorf("decoder.maxDepth must be positive, got %d", c.Decoder.MaxDepth)
	}
	if _, err := bencode.ParseDuplicateKeyPolicy(c.Decoder.DuplicateKeys); err != nil {
		return errors.Wrap(err, "decoder.duplicateKeys")
	}
	if c.Tracker.Port <= 0 || c.Tracker.Port > 65535 {
		return errors.Errorf("tracker.port %d out of range", c.Tracker.Port)
	}
	if c.Tracker.Timeout <= 0 {
		return errors.Errorf("tracker.timeout must be positive, got %s", c.Tracker.Timeout)
	}
	if c.Peer.ConnectTimeout <= 0 || c.Peer.IOTimeout <= 0 {
		return errors.Errorf("peer timeouts must be positive, got %s and %s", c.Peer.ConnectTimeout, c.Peer.IOTimeout)
	}
	if c.Peer.Concurrency <= 0 {
		return errors.Errorf("peer.concurrency must be positive, got %d", c.Peer.Concurrency)
	}
	return nil
}

func (c *Config) DecoderOptions() bencode.Options {
	policy, _ := bencode.ParseDuplicateKeyPolicy(c.Decoder.DuplicateKeys)
	return bencode.Options{
		MaxDepth:      c.Decoder.MaxDepth,
		DuplicateKeys: policy,
	}
}

// viper reports a missing file set with SetConfigFile as a plain os error
// rather than ConfigFileNotFoundError.
func isNotExist(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr) && os.IsNotExist(pathErr)
}
