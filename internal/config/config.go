// =============================================================================
// Negotiated Rate Filter - Configuration Module
// =============================================================================
//
// This module loads the run configuration. Every setting can come from four
// places, highest precedence first:
//   1. Command-line flags           (--input, --output, --format, ...)
//   2. Environment variables        (RATEFILTER_INPUT, RATEFILTER_LOG_LEVEL, ...)
//   3. A YAML configuration file    (--config, or ./ratefilter.yaml if present)
//   4. Built-in defaults
//
// EXAMPLE FILE:
//   input: rates.jsonl.gz
//   output: cheap_rates.csv
//   format: csv
//   precision: 2
//   log:
//     level: info
//
// The 30.0 filter threshold is deliberately not a setting.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/ratefilter/internal/csvwriter"
	"github.com/ginjaninja78/ratefilter/internal/logging"
	"github.com/ginjaninja78/ratefilter/pkg/utils"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "RATEFILTER"

// DefaultConfigName is the file searched for when --config is not given.
const DefaultConfigName = "ratefilter"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the settings for one run.
type Config struct {
	// Input is the JSON Lines input path. Empty or "-" reads standard input.
	Input string `yaml:"input" mapstructure:"input"`

	// Output is the output path. Empty or "-" writes standard output.
	Output string `yaml:"output" mapstructure:"output"`

	// Format selects the output sink: "csv" or "xlsx".
	// Default: "csv"
	Format string `yaml:"format" mapstructure:"format"`

	// Precision is the number of decimal places printed for avg_rate.
	// -1 prints the shortest exact representation. Filtering always uses
	// the unrounded average.
	// Default: -1
	Precision int `yaml:"precision" mapstructure:"precision"`

	// Compression of the input: auto, none, gzip, zstd or lz4.
	// Default: "auto"
	Compression string `yaml:"compression" mapstructure:"compression"`

	// SheetName is the worksheet name used by the xlsx format.
	// Default: "rates"
	SheetName string `yaml:"sheet_name" mapstructure:"sheet_name"`

	// Log configures operational logging.
	Log logging.Config `yaml:"log" mapstructure:"log"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"input":       "input",
	"output":      "output",
	"format":      "format",
	"precision":   "precision",
	"compression": "compression",
	"sheet":       "sheet_name",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// =============================================================================
// LOADING
// =============================================================================

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string

	// SearchPaths are searched for ratefilter.yaml when ConfigFile is empty.
	// Default: ["."]
	SearchPaths []string

	// Flags are bound over every other source. Only flags that were set on
	// the command line override; unknown names are ignored.
	Flags *pflag.FlagSet
}

// Load resolves the configuration from flags, environment, file and defaults,
// then validates it.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfigFile loads the explicit file, or the first ratefilter.yaml found
// on the search paths. A missing implicit file is not an error.
func readConfigFile(v *viper.Viper, opts LoadOptions) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
		return nil
	}

	searchPaths := opts.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{"."}
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults registers every key so environment overrides are seen by
// Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("format", FormatCSV)
	v.SetDefault("precision", -1)
	v.SetDefault("compression", utils.CompressionAuto)
	v.SetDefault("sheet_name", "rates")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// ApplyDefaults sets default values for unset options.
func (c *Config) ApplyDefaults() {
	if c.Format == "" {
		c.Format = FormatCSV
	}
	if c.Compression == "" {
		c.Compression = utils.CompressionAuto
	}
	if c.SheetName == "" {
		c.SheetName = "rates"
	}
	c.Format = strings.ToLower(c.Format)
	c.Compression = strings.ToLower(c.Compression)
	c.Log.ApplyDefaults()
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("%w: format must be csv or xlsx (got: %q)", ErrInvalidConfig, c.Format)
	}

	if !utils.ValidCompression(c.Compression) {
		return fmt.Errorf("%w: compression must be one of auto, none, gzip, zstd, lz4 (got: %q)",
			ErrInvalidConfig, c.Compression)
	}

	if c.Precision < -1 || c.Precision > csvwriter.MaxPrecision {
		return fmt.Errorf("%w: precision must be between -1 and %d (got: %d)",
			ErrInvalidConfig, csvwriter.MaxPrecision, c.Precision)
	}

	if len(c.SheetName) > 31 {
		return fmt.Errorf("%w: sheet_name must be at most 31 characters", ErrInvalidConfig)
	}

	if !utils.IsStdStream(c.Input) && c.Input == c.Output {
		return fmt.Errorf("%w: input and output are the same file: %s", ErrInvalidConfig, c.Input)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// Dump renders the configuration as YAML.
func Dump(c *Config) ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return out, nil
}
