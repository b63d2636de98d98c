// Package config loads graphscore configuration from file, environment
// and defaults.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"graphscore/internal/tree"
)

// Config represents the complete graphscore configuration
type Config struct {
	// GraphsDir is the directory holding per-patient graph JSON files
	GraphsDir string `json:"graphsDir" mapstructure:"graphsDir"`
	// ClinicalData is the path to the clinical biomarker CSV
	ClinicalData string `json:"clinicalData" mapstructure:"clinicalData"`
	// DatabasePath is where batch score runs are persisted
	DatabasePath string `json:"databasePath" mapstructure:"databasePath"`
	// EdgesKey is the node-link JSON key holding the edge list
	EdgesKey string `json:"edgesKey" mapstructure:"edgesKey"`

	Schema     SchemaConfig     `json:"schema" mapstructure:"schema"`
	Thresholds ThresholdsConfig `json:"thresholds" mapstructure:"thresholds"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// SchemaConfig names the edge attributes of the graph schema. Multiple
// scoring calls in one process may use different schemas, so these are
// configuration, not constants.
type SchemaConfig struct {
	InputAttr      string `json:"inputAttr" mapstructure:"inputAttr" yaml:"inputAttr"`
	MaxAttr        string `json:"maxAttr" mapstructure:"maxAttr" yaml:"maxAttr"`
	PropagatedAttr string `json:"propagatedAttr" mapstructure:"propagatedAttr" yaml:"propagatedAttr"`
	CumulatedAttr  string `json:"cumulatedAttr" mapstructure:"cumulatedAttr" yaml:"cumulatedAttr"`
}

// ThresholdsConfig carries the default Qanadli obstruction thresholds
type ThresholdsConfig struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GraphsDir:    "data/graphs",
		ClinicalData: "data/clinical.csv",
		DatabasePath: ".graphscore/scores.db",
		EdgesKey:     tree.DefaultEdgesKey,
		Schema: SchemaConfig{
			InputAttr:      tree.DefaultInputAttr,
			MaxAttr:        tree.DefaultMaxAttr,
			PropagatedAttr: tree.DefaultPropagatedAttr,
			CumulatedAttr:  tree.DefaultCumulatedAttr,
		},
		Thresholds: ThresholdsConfig{Min: 0.25, Max: 0.75},
		Logging:    LoggingConfig{Level: "info", Format: "human"},
	}
}

// Load reads configuration with the precedence env > file > defaults.
// An empty path searches for graphscore.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GRAPHSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("graphscore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/graphscore")
		}
		// A missing config file is fine; defaults apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("graphsDir", d.GraphsDir)
	v.SetDefault("clinicalData", d.ClinicalData)
	v.SetDefault("databasePath", d.DatabasePath)
	v.SetDefault("edgesKey", d.EdgesKey)
	v.SetDefault("schema.inputAttr", d.Schema.InputAttr)
	v.SetDefault("schema.maxAttr", d.Schema.MaxAttr)
	v.SetDefault("schema.propagatedAttr", d.Schema.PropagatedAttr)
	v.SetDefault("schema.cumulatedAttr", d.Schema.CumulatedAttr)
	v.SetDefault("thresholds.min", d.Thresholds.Min)
	v.SetDefault("thresholds.max", d.Thresholds.Max)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// DerivedAttrs lists the three derived attribute names in computation
// order, for "score every attribute" batch runs.
func (s SchemaConfig) DerivedAttrs() []string {
	return []string{s.MaxAttr, s.PropagatedAttr, s.CumulatedAttr}
}
