package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphscore/internal/batch"
	"graphscore/internal/clinical"
	"graphscore/internal/score"
	"graphscore/internal/storage"
)

var (
	correlateFormat        string
	correlateClinical      string
	correlateAttr          string
	correlateAllAttributes bool
	correlateMode          string
	correlateUsePercentage bool
	correlateMinThresh     float64
	correlateMaxThresh     float64
	correlateSeed          float64
	correlateRun           string
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <score> <biomarker>",
	Short: "Correlate batch scores with a clinical biomarker",
	Long: `Correlate batch scores with a clinical biomarker.

Scores every patient graph in the configured graphs directory, pairs the
scores with the biomarker column from the clinical CSV by patient ID,
and reports the Pearson correlation with its two-sided p-value. With
--run, scores are read back from a stored batch run instead.

Examples:
  graphscore correlate qanadli troponin
  graphscore correlate mastora bnp --all-attributes --clinical data/labs.csv
  graphscore correlate qanadli troponin --run 7f8a...`,
	Args: cobra.ExactArgs(2),
	Run:  runCorrelate,
}

func init() {
	correlateCmd.Flags().StringVar(&correlateFormat, "format", "json", "Output format (json, human)")
	correlateCmd.Flags().StringVar(&correlateClinical, "clinical", "",
		"Clinical CSV path (default: the configured clinical data file)")
	correlateCmd.Flags().StringVar(&correlateAttr, "obstruction-attr", "",
		"Edge attribute to score (default: the configured max attribute)")
	correlateCmd.Flags().BoolVar(&correlateAllAttributes, "all-attributes", false,
		"Correlate all three derived attributes")
	correlateCmd.Flags().StringVar(&correlateMode, "mode", "mls",
		"Mastora: arterial levels to include")
	correlateCmd.Flags().BoolVar(&correlateUsePercentage, "use-percentage", false,
		"Mastora: average raw degrees instead of grades")
	correlateCmd.Flags().Float64Var(&correlateMinThresh, "min-obstruction-thresh", 0,
		"Qanadli: obstruction threshold (default 0.25)")
	correlateCmd.Flags().Float64Var(&correlateMaxThresh, "max-obstruction-thresh", 0,
		"Qanadli: occlusion threshold (default 0.75)")
	correlateCmd.Flags().Float64Var(&correlateSeed, "seed", 0,
		"Obstruction degree assumed above the root edge")
	correlateCmd.Flags().StringVar(&correlateRun, "run", "",
		"Correlate a stored batch run instead of rescoring")
	rootCmd.AddCommand(correlateCmd)
}

func runCorrelate(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	r := newRunner(cfg, logger, correlateSeed)

	clinicalPath := correlateClinical
	if clinicalPath == "" {
		clinicalPath = cfg.ClinicalData
	}
	obs, err := clinical.LoadBiomarker(clinicalPath, args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	minThresh, maxThresh := correlateMinThresh, correlateMaxThresh
	if minThresh == 0 {
		minThresh = cfg.Thresholds.Min
	}
	if maxThresh == 0 {
		maxThresh = cfg.Thresholds.Max
	}
	attr := correlateAttr
	if attr == "" {
		attr = cfg.Schema.MaxAttr
	}
	attrs := []string{attr}
	if correlateAllAttributes {
		attrs = cfg.Schema.DerivedAttrs()
	}

	var run *storage.ScoreRun
	if correlateRun != "" {
		db, err := storage.Open(cfg.DatabasePath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening score database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		run, err = db.GetRun(correlateRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		patients, err := batch.DiscoverPatients(cfg.GraphsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		run = r.Run(patients, batch.Options{
			ScoreName: args[0],
			GraphsDir: cfg.GraphsDir,
			Params: score.Params{
				Mode:                 correlateMode,
				UsePercentage:        correlateUsePercentage,
				MinObstructionThresh: minThresh,
				MaxObstructionThresh: maxThresh,
			},
			ObstructionAttrs: attrs,
		})
	}

	resp := &CorrelationResponseCLI{
		Score:     args[0],
		Biomarker: args[1],
		Results:   make(map[string]clinical.Correlation),
	}
	for _, a := range attrs {
		xs, ys := clinical.Pair(obs, batch.ScoresByPatient(run, a))
		resp.Results[a] = clinical.Pearson(xs, ys)
	}

	text, err := FormatResponse(resp, OutputFormat(correlateFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}
