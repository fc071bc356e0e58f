// Package config provides the configuration for a chunked parse job.
// A single Config structure is organized into sections:
//   - Parse: separators, quoting, missing values, format, type overrides
//   - Source: where chunks come from and how large they are
//   - Performance: worker parallelism
//   - Observability: logging, metrics and tracing switches
//
// Example usage:
//
//	cfg := config.NewDefault("bestbuy")
//	cfg.Parse.Separators = []string{"|"}
//	cfg.Source.URI = "s3://datasets/bestbuy_train.csv"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Input formats accepted by ParseConfig.Format
const (
	FormatAuto      = "auto"
	FormatDelimited = "delimited"
	FormatSparse    = "sparse"
)

// Input encodings accepted by ParseConfig.Encoding
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingISO88591    = "iso-8859-1"
)

// DefaultSeparators is the separator alphabet used when none is configured
var DefaultSeparators = []string{",", "|", ";", "\t", " "}

// Config is the configuration of one parse job.
type Config struct {
	// Name identifies the job in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`

	// Parse settings control tokenization and type inference
	Parse ParseConfig `yaml:"parse" json:"parse" mapstructure:"parse"`

	// Source locates the input bytes
	Source SourceConfig `yaml:"source" json:"source" mapstructure:"source"`

	// Performance settings control parallelism
	Performance PerformanceConfig `yaml:"performance" json:"performance" mapstructure:"performance"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// ParseConfig contains the recognized parser options.
type ParseConfig struct {
	// Separators is the set of single-character separators the data may use
	Separators []string `yaml:"separators" json:"separators" mapstructure:"separators"`
	// QuoteChar delimits quoted fields; empty disables quoting
	QuoteChar string `yaml:"quote_char" json:"quote_char" mapstructure:"quote_char"`
	// NAStrings are treated as missing in addition to the empty token
	NAStrings []string `yaml:"na_strings" json:"na_strings" mapstructure:"na_strings"`
	// Format is auto, delimited or sparse
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	// ForceCategorical lists 0-based column indices that are always categorical
	ForceCategorical []int `yaml:"force_categorical" json:"force_categorical" mapstructure:"force_categorical"`
	// Header consumes the first logical row as column names
	Header bool `yaml:"header" json:"header" mapstructure:"header"`
	// Encoding of the input bytes
	Encoding string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	// MaxCategoricalLevels caps the size of a categorical domain
	MaxCategoricalLevels int `yaml:"max_categorical_levels" json:"max_categorical_levels" mapstructure:"max_categorical_levels"`
	// SetupSampleRows is how many leading rows are used to guess the separator and format
	SetupSampleRows int `yaml:"setup_sample_rows" json:"setup_sample_rows" mapstructure:"setup_sample_rows"`
}

// SourceConfig locates the input.
type SourceConfig struct {
	// URI is a local path, s3://bucket/key or gs://bucket/object
	URI string `yaml:"uri" json:"uri" mapstructure:"uri"`
	// ChunkSize is the byte length of each chunk
	ChunkSize int64 `yaml:"chunk_size" json:"chunk_size" mapstructure:"chunk_size"`
	// Region for S3 sources
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// CredentialsFile for GCS sources
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// PerformanceConfig contains parallelism settings.
type PerformanceConfig struct {
	// Workers bounds the number of chunks processed concurrently (0 = auto)
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// EnableMetrics records Prometheus metrics for the job
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// EnableTracing emits one span per parse phase
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
}

// NewDefault creates a Config with defaults suitable for most inputs.
func NewDefault(name string) *Config {
	return &Config{
		Name: name,
		Parse: ParseConfig{
			Separators:           append([]string(nil), DefaultSeparators...),
			QuoteChar:            `"`,
			Format:               FormatAuto,
			Encoding:             EncodingUTF8,
			MaxCategoricalLevels: 65536,
			SetupSampleRows:      100,
		},
		Source: SourceConfig{
			ChunkSize: 4 << 20,
		},
		Performance: PerformanceConfig{
			Workers: 0,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 0.1,
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := c.Parse.Validate(); err != nil {
		return err
	}
	if c.Source.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.Performance.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("tracing_sample_rate must be within [0, 1]")
	}
	return nil
}

// Validate checks the parser options.
func (p *ParseConfig) Validate() error {
	if len(p.Separators) == 0 {
		return fmt.Errorf("at least one separator is required")
	}
	for _, s := range p.Separators {
		if !isSeparator(s) {
			return fmt.Errorf("unsupported separator %q", s)
		}
	}
	if len(p.QuoteChar) > 1 {
		return fmt.Errorf("quote_char must be a single character")
	}
	if p.QuoteChar != "" {
		q := p.QuoteChar[0]
		if q == '\n' || q == '\r' || q >= 0x80 {
			return fmt.Errorf("unsupported quote_char %q", p.QuoteChar)
		}
		for _, s := range p.Separators {
			if s == p.QuoteChar {
				return fmt.Errorf("quote_char %q is also a separator", p.QuoteChar)
			}
		}
	}
	switch p.Format {
	case FormatAuto, FormatDelimited, FormatSparse:
	default:
		return fmt.Errorf("unsupported format %q", p.Format)
	}
	switch p.Encoding {
	case EncodingUTF8, EncodingWindows1252, EncodingISO88591:
	default:
		return fmt.Errorf("unsupported encoding %q", p.Encoding)
	}
	for _, idx := range p.ForceCategorical {
		if idx < 0 {
			return fmt.Errorf("force_categorical index %d is negative", idx)
		}
	}
	if p.MaxCategoricalLevels <= 0 {
		return fmt.Errorf("max_categorical_levels must be positive")
	}
	if p.SetupSampleRows <= 0 {
		return fmt.Errorf("setup_sample_rows must be positive")
	}
	return nil
}

func isSeparator(s string) bool {
	for _, d := range DefaultSeparators {
		if s == d {
			return true
		}
	}
	return false
}

// SeparatorBytes returns the configured separators in configuration order
func (p *ParseConfig) SeparatorBytes() []byte {
	seps := make([]byte, 0, len(p.Separators))
	for _, s := range p.Separators {
		seps = append(seps, s[0])
	}
	return seps
}

// QuoteByte returns the quote character, or 0 when quoting is disabled
func (p *ParseConfig) QuoteByte() byte {
	if p.QuoteChar == "" {
		return 0
	}
	return p.QuoteChar[0]
}

// ForcedColumns returns ForceCategorical as a set
func (p *ParseConfig) ForcedColumns() map[int]bool {
	forced := make(map[int]bool, len(p.ForceCategorical))
	for _, idx := range p.ForceCategorical {
		forced[idx] = true
	}
	return forced
}

// GetWorkers returns the number of workers, defaulting to the logical CPU count
func (p *PerformanceConfig) GetWorkers() int {
	if p.Workers <= 0 {
		return DefaultWorkers()
	}
	return p.Workers
}

// DefaultWorkers reports the logical CPU count of the host
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}
