package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphscore/internal/output"
	"graphscore/internal/score"
)

var (
	mastoraFormat        string
	mastoraAttr          string
	mastoraMode          string
	mastoraUsePercentage bool
	mastoraSeed          float64
	mastoraDebug         bool
)

var mastoraCmd = &cobra.Command{
	Use:   "mastora <graph>",
	Short: "Compute the Mastora obstruction score for one arterial tree",
	Long: `Compute the Mastora obstruction score for one arterial tree.

The graph argument is either a node-link JSON file path or a patient ID
resolved against the configured graphs directory. Derived obstruction
attributes are recomputed before scoring.

Examples:
  graphscore mastora data/graphs/0055_graph_ep_transversal_obstruction.json
  graphscore mastora 55 --mode ml
  graphscore mastora 55 --use-percentage --format=human`,
	Args: cobra.ExactArgs(1),
	Run:  runMastora,
}

func init() {
	mastoraCmd.Flags().StringVar(&mastoraFormat, "format", "json", "Output format (json, human)")
	mastoraCmd.Flags().StringVar(&mastoraAttr, "obstruction-attr", "",
		"Edge attribute to score (default: the configured max attribute)")
	mastoraCmd.Flags().StringVar(&mastoraMode, "mode", "mls",
		"Arterial levels to include: any combination of m, l, s")
	mastoraCmd.Flags().BoolVar(&mastoraUsePercentage, "use-percentage", false,
		"Average raw obstruction degrees instead of 1-5 grades")
	mastoraCmd.Flags().Float64Var(&mastoraSeed, "seed", 0,
		"Obstruction degree assumed above the root edge")
	mastoraCmd.Flags().BoolVar(&mastoraDebug, "debug", false,
		"Include per-edge match traces")
	rootCmd.AddCommand(mastoraCmd)
}

func runMastora(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	r := newRunner(cfg, logger, mastoraSeed)

	attr := mastoraAttr
	if attr == "" {
		attr = cfg.Schema.MaxAttr
	}

	g := mustLoadAnnotated(cfg, r, args[0])
	params := score.Params{
		ObstructionAttr: attr,
		Mode:            mastoraMode,
		UsePercentage:   mastoraUsePercentage,
	}

	resp := &ScoreResponseCLI{
		Score:           score.NameMastora,
		Graph:           args[0],
		ObstructionAttr: attr,
	}
	if mastoraDebug {
		value, matches, err := score.ComputeDebug(score.NameMastora, g, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Value = output.RoundScore(value)
		for _, m := range matches {
			resp.Traces = append(resp.Traces, m.Label)
		}
	} else {
		value, err := score.Compute(score.NameMastora, g, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		resp.Value = output.RoundScore(value)
	}

	text, err := FormatResponse(resp, OutputFormat(mastoraFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}
