package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphscore/internal/output"
	"graphscore/internal/score"
)

var (
	qanadliFormat    string
	qanadliAttr      string
	qanadliMinThresh float64
	qanadliMaxThresh float64
	qanadliSeed      float64
	qanadliDebug     bool
)

var qanadliCmd = &cobra.Command{
	Use:   "qanadli <graph>",
	Short: "Compute the Qanadli obstruction score for one arterial tree",
	Long: `Compute the Qanadli obstruction score for one arterial tree.

The graph argument is either a node-link JSON file path or a patient ID
resolved against the configured graphs directory.

Examples:
  graphscore qanadli 55
  graphscore qanadli 55 --min-obstruction-thresh 0.3 --debug
  graphscore qanadli data/graphs/0055_graph_ep_transversal_obstruction.json`,
	Args: cobra.ExactArgs(1),
	Run:  runQanadli,
}

func init() {
	qanadliCmd.Flags().StringVar(&qanadliFormat, "format", "json", "Output format (json, human)")
	qanadliCmd.Flags().StringVar(&qanadliAttr, "obstruction-attr", "",
		"Edge attribute to score (default: the configured max attribute)")
	qanadliCmd.Flags().Float64Var(&qanadliMinThresh, "min-obstruction-thresh", 0,
		"Degree above which an artery counts as obstructed (default 0.25)")
	qanadliCmd.Flags().Float64Var(&qanadliMaxThresh, "max-obstruction-thresh", 0,
		"Degree at which an artery counts as fully occluded (default 0.75)")
	qanadliCmd.Flags().Float64Var(&qanadliSeed, "seed", 0,
		"Obstruction degree assumed above the root edge")
	qanadliCmd.Flags().BoolVar(&qanadliDebug, "debug", false,
		"Include per-edge match traces")
	rootCmd.AddCommand(qanadliCmd)
}

func runQanadli(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	r := newRunner(cfg, logger, qanadliSeed)

	attr := qanadliAttr
	if attr == "" {
		attr = cfg.Schema.MaxAttr
	}
	minThresh, maxThresh := qanadliMinThresh, qanadliMaxThresh
	if minThresh == 0 {
		minThresh = cfg.Thresholds.Min
	}
	if maxThresh == 0 {
		maxThresh = cfg.Thresholds.Max
	}

	g := mustLoadAnnotated(cfg, r, args[0])
	params := score.Params{
		ObstructionAttr:      attr,
		MinObstructionThresh: minThresh,
		MaxObstructionThresh: maxThresh,
	}

	resp := &ScoreResponseCLI{
		Score:           score.NameQanadli,
		Graph:           args[0],
		ObstructionAttr: attr,
	}
	if qanadliDebug {
		value, matches, err := score.ComputeDebug(score.NameQanadli, g, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Value = output.RoundScore(value)
		for _, m := range matches {
			resp.Traces = append(resp.Traces, m.Label)
		}
	} else {
		value, err := score.Compute(score.NameQanadli, g, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Value = output.RoundScore(value)
	}

	text, err := FormatResponse(resp, OutputFormat(qanadliFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}
