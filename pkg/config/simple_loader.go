package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. CHUNKFRAME_PARSE_HEADER=true
const EnvPrefix = "CHUNKFRAME"

// Load reads a YAML, JSON or TOML configuration file on top of the defaults.
// ${VAR_NAME} references in the file are replaced with environment values,
// and CHUNKFRAME_<SECTION>_<KEY> variables override file values.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configType := strings.TrimPrefix(filepath.Ext(filePath), ".")
	if configType == "yml" {
		configType = "yaml"
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", configType, err)
	}

	return decode(v)
}

// FromEnv builds a configuration from the defaults and CHUNKFRAME_* variables only
func FromEnv() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := NewDefault("")
	v.SetDefault("name", def.Name)
	v.SetDefault("parse.separators", def.Parse.Separators)
	v.SetDefault("parse.quote_char", def.Parse.QuoteChar)
	v.SetDefault("parse.na_strings", def.Parse.NAStrings)
	v.SetDefault("parse.format", def.Parse.Format)
	v.SetDefault("parse.force_categorical", def.Parse.ForceCategorical)
	v.SetDefault("parse.header", def.Parse.Header)
	v.SetDefault("parse.encoding", def.Parse.Encoding)
	v.SetDefault("parse.max_categorical_levels", def.Parse.MaxCategoricalLevels)
	v.SetDefault("parse.setup_sample_rows", def.Parse.SetupSampleRows)
	v.SetDefault("source.uri", def.Source.URI)
	v.SetDefault("source.chunk_size", def.Source.ChunkSize)
	v.SetDefault("source.region", def.Source.Region)
	v.SetDefault("source.credentials_file", def.Source.CredentialsFile)
	v.SetDefault("performance.workers", def.Performance.Workers)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)
	v.SetDefault("observability.enable_metrics", def.Observability.EnableMetrics)
	v.SetDefault("observability.enable_tracing", def.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", def.Observability.TracingSampleRate)
	return v
}

// decode unmarshals into a zero Config. Every key has a viper default, and a
// prefilled slice would keep its trailing default elements.
func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes a configuration to a YAML file
func Save(filePath string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
