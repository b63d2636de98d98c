package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphscore/internal/batch"
	"graphscore/internal/config"
	"graphscore/internal/logging"
	"graphscore/internal/tree"
	"graphscore/internal/version"
)

var (
	// configFlag is the CLI --config flag value
	configFlag string
	// logLevelFlag overrides the configured log level
	logLevelFlag string
	// logFormatFlag overrides the configured log format
	logFormatFlag string
	// edgesKeyFlag overrides the node-link edge list key
	edgesKeyFlag string
	// schemaFlag points at a YAML file naming the edge attribute schema
	schemaFlag string
)

var rootCmd = &cobra.Command{
	Use:   "graphscore",
	Short: "graphscore - arterial tree obstruction scoring",
	Long: `graphscore computes clinical obstruction severity scores (Mastora,
Qanadli) over arterial trees extracted from CT angiography, stored as
node-link JSON graphs.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("graphscore version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Config file (default: graphscore.yaml in . or ~/.config/graphscore)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: json, human")
	rootCmd.PersistentFlags().StringVar(&edgesKeyFlag, "edges-key", "",
		"Node-link JSON key holding the edge list (default: links)")
	rootCmd.PersistentFlags().StringVar(&schemaFlag, "schema", "",
		"YAML file naming the edge attribute schema")
}

// mustLoadConfig resolves the effective configuration from the config
// file, schema file, and CLI overrides. Precedence: CLI flag > env var >
// config file > defaults.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if schemaFlag != "" {
		schema, err := config.LoadSchemaFile(schemaFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading schema: %v\n", err)
			os.Exit(1)
		}
		cfg.Schema = *schema
	}
	if edgesKeyFlag != "" {
		cfg.EdgesKey = edgesKeyFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	return cfg
}

// newLogger builds the logger for one command run.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})
}

// newRunner builds a batch runner bound to the effective schema.
func newRunner(cfg *config.Config, logger *logging.Logger, seed float64) *batch.Runner {
	r := batch.NewRunner(logger)
	r.Schema = cfg.Schema
	r.EdgesKey = cfg.EdgesKey
	r.Seed = seed
	return r
}

// mustLoadAnnotated resolves a graph argument (file path or patient ID)
// and returns the annotated tree.
func mustLoadAnnotated(cfg *config.Config, r *batch.Runner, input string) *tree.Graph {
	path, err := batch.ResolveGraphPath(cfg.GraphsDir, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	g, err := r.LoadAnnotated(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading graph: %v\n", err)
		os.Exit(1)
	}
	return g
}
