// Package config holds the settings shared by the sargtool commands.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/orcsarg/internal/compression"
	"github.com/harshithgowdakt/orcsarg/internal/encoded"
	"github.com/harshithgowdakt/orcsarg/internal/sarg"
	"github.com/harshithgowdakt/orcsarg/internal/scan"
)

const (
	DefaultCodec     = "zstd"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "logfmt"
)

// Config is the root of the YAML configuration file.
type Config struct {
	SARG        SARGConfig        `yaml:"sarg"`
	Scan        ScanConfig        `yaml:"scan"`
	Compression CompressionConfig `yaml:"compression"`
	Log         LogConfig         `yaml:"log"`
}

// SARGConfig controls search argument construction.
type SARGConfig struct {
	// Largest number of clauses a disjunction may expand to during CNF
	// conversion before it is replaced by YES_NO_NULL.
	CNFCombinationsThreshold int `yaml:"cnf_combinations_threshold"`
}

// ScanConfig controls row group selection.
type ScanConfig struct {
	Parallelism    int `yaml:"parallelism"`
	StatsCacheSize int `yaml:"stats_cache_size"`
}

// CompressionConfig selects the codec of written row indexes.
type CompressionConfig struct {
	Codec     string `yaml:"codec"`
	BlockSize int    `yaml:"block_size"`
}

// LogConfig selects the log level and output format (logfmt or json).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SARG: SARGConfig{CNFCombinationsThreshold: sarg.DefaultCNFCombinationsThreshold},
		Scan: ScanConfig{
			Parallelism:    scan.DefaultParallelism,
			StatsCacheSize: encoded.DefaultCacheSize,
		},
		Compression: CompressionConfig{Codec: DefaultCodec, BlockSize: compression.DefaultBlockSize},
		Log:         LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Parse decodes a YAML document over the defaults. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decode config")
	}
	return nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.SARG.CNFCombinationsThreshold <= 0 {
		return errors.Newf("sarg.cnf_combinations_threshold must be positive, got %d", c.SARG.CNFCombinationsThreshold)
	}
	if c.Scan.Parallelism <= 0 {
		return errors.Newf("scan.parallelism must be positive, got %d", c.Scan.Parallelism)
	}
	if c.Scan.StatsCacheSize < 0 {
		return errors.Newf("scan.stats_cache_size must not be negative, got %d", c.Scan.StatsCacheSize)
	}
	if _, err := c.Compression.NewCodec(); err != nil {
		return errors.Wrap(err, "compression.codec")
	}
	if c.Compression.BlockSize <= 0 || c.Compression.BlockSize > compression.MaxBlockSize {
		return errors.Newf("compression.block_size must be in (0, %d], got %d", compression.MaxBlockSize, c.Compression.BlockSize)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "logfmt", "json":
	default:
		return errors.Newf("log.format must be logfmt or json, got %q", c.Log.Format)
	}
	return nil
}

// NewCodec returns the configured codec.
func (c CompressionConfig) NewCodec() (compression.Codec, error) {
	kind, err := compression.ParseKind(c.Codec)
	if err != nil {
		return nil, err
	}
	return compression.New(kind)
}

// BuilderOptions returns the search argument builder settings.
func (c SARGConfig) BuilderOptions() []sarg.BuilderOption {
	return []sarg.BuilderOption{sarg.WithCNFThreshold(c.CNFCombinationsThreshold)}
}

var flagNames = []string{
	"sarg.cnf-combinations-threshold",
	"scan.parallelism",
	"scan.stats-cache-size",
	"compression.codec",
	"compression.block-size",
	"log.level",
	"log.format",
}

// RegisterFlags binds command line overrides of every setting to c, using
// the current values as defaults.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.SARG.CNFCombinationsThreshold, flagNames[0], c.SARG.CNFCombinationsThreshold, "Largest CNF expansion of a disjunction before it is replaced by YES_NO_NULL.")
	fs.IntVar(&c.Scan.Parallelism, flagNames[1], c.Scan.Parallelism, "Stripes evaluated concurrently.")
	fs.IntVar(&c.Scan.StatsCacheSize, flagNames[2], c.Scan.StatsCacheSize, "Row group statistics kept in memory.")
	fs.StringVar(&c.Compression.Codec, flagNames[3], c.Compression.Codec, "Codec: "+strings.Join(codecNames(), ", ")+".")
	fs.IntVar(&c.Compression.BlockSize, flagNames[4], c.Compression.BlockSize, "Uncompressed size of one compression chunk.")
	fs.StringVar(&c.Log.Level, flagNames[5], c.Log.Level, "Log level: debug, info, warn, error.")
	fs.StringVar(&c.Log.Format, flagNames[6], c.Log.Format, "Log format: logfmt, json.")
}

func codecNames() []string {
	kinds := []compression.Kind{
		compression.KindNone, compression.KindZlib, compression.KindSnappy, compression.KindLZ4, compression.KindZstd,
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = strings.ToLower(k.String())
	}
	return names
}

// Apply loads path over c, when set, and reapplies the flags given on the
// command line so they take precedence over the file.
func (c *Config) Apply(path string, fs *pflag.FlagSet) error {
	changed := make(map[string]string)
	for _, name := range flagNames {
		if f := fs.Lookup(name); f != nil && f.Changed {
			changed[name] = f.Value.String()
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
		if err := c.decode(data); err != nil {
			return errors.Wrapf(err, "config %s", path)
		}
	}
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return errors.Wrapf(err, "flag --%s", name)
		}
	}
	return c.Validate()
}
