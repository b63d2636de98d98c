package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"graphscore/internal/batch"
	"graphscore/internal/config"
	"graphscore/internal/score"
	"graphscore/internal/storage"
)

var (
	batchFormat        string
	batchAttr          string
	batchAllAttributes bool
	batchPatientsFile  string
	batchMode          string
	batchUsePercentage bool
	batchMinThresh     float64
	batchMaxThresh     float64
	batchSeed          float64
	batchNoSave        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <score> [patient...]",
	Short: "Score every patient graph in the configured graphs directory",
	Long: `Score every patient graph in the configured graphs directory.

Patients come from the positional arguments, from --patients (one ID per
line), or from scanning the graphs directory when neither is given. A
failure on one patient is recorded and skipped; the batch never aborts.
Results are persisted to the score database unless --no-save is set.

Examples:
  graphscore batch qanadli
  graphscore batch mastora 55 56 57 --mode ml
  graphscore batch qanadli --all-attributes --patients cohort.txt`,
	Args: cobra.MinimumNArgs(1),
	Run:  runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "Output format (json, human)")
	batchCmd.Flags().StringVar(&batchAttr, "obstruction-attr", "",
		"Edge attribute to score (default: the configured max attribute)")
	batchCmd.Flags().BoolVar(&batchAllAttributes, "all-attributes", false,
		"Score all three derived attributes per patient")
	batchCmd.Flags().StringVar(&batchPatientsFile, "patients", "",
		"File listing patient IDs, one per line")
	batchCmd.Flags().StringVar(&batchMode, "mode", "mls",
		"Mastora: arterial levels to include")
	batchCmd.Flags().BoolVar(&batchUsePercentage, "use-percentage", false,
		"Mastora: average raw degrees instead of grades")
	batchCmd.Flags().Float64Var(&batchMinThresh, "min-obstruction-thresh", 0,
		"Qanadli: obstruction threshold (default 0.25)")
	batchCmd.Flags().Float64Var(&batchMaxThresh, "max-obstruction-thresh", 0,
		"Qanadli: occlusion threshold (default 0.75)")
	batchCmd.Flags().Float64Var(&batchSeed, "seed", 0,
		"Obstruction degree assumed above the root edge")
	batchCmd.Flags().BoolVar(&batchNoSave, "no-save", false,
		"Do not persist the run to the score database")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	r := newRunner(cfg, logger, batchSeed)

	patients := mustResolvePatients(cfg, args[1:])
	run := r.Run(patients, batch.Options{
		ScoreName:        args[0],
		GraphsDir:        cfg.GraphsDir,
		Params:           batchParams(cfg),
		ObstructionAttrs: batchAttrs(cfg),
	})

	if !batchNoSave {
		db, err := storage.Open(cfg.DatabasePath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening score database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.SaveRun(run); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving run: %v\n", err)
			os.Exit(1)
		}
	}

	resp := &BatchResponseCLI{
		RunID:    run.ID,
		Score:    run.ScoreName,
		Scores:   run.Scores,
		Failures: run.Failures,
	}
	text, err := FormatResponse(resp, OutputFormat(batchFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}

// batchParams collects the per-score parameters shared by batch and
// correlate.
func batchParams(cfg *config.Config) score.Params {
	minThresh, maxThresh := batchMinThresh, batchMaxThresh
	if minThresh == 0 {
		minThresh = cfg.Thresholds.Min
	}
	if maxThresh == 0 {
		maxThresh = cfg.Thresholds.Max
	}
	attr := batchAttr
	if attr == "" {
		attr = cfg.Schema.MaxAttr
	}
	return score.Params{
		ObstructionAttr:      attr,
		Mode:                 batchMode,
		UsePercentage:        batchUsePercentage,
		MinObstructionThresh: minThresh,
		MaxObstructionThresh: maxThresh,
	}
}

func batchAttrs(cfg *config.Config) []string {
	if batchAllAttributes {
		return cfg.Schema.DerivedAttrs()
	}
	return nil
}

// mustResolvePatients picks the patient list: positional args, then the
// --patients file, then a scan of the graphs directory.
func mustResolvePatients(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if batchPatientsFile != "" {
		f, err := os.Open(batchPatientsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading patients file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		var ids []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ids = append(ids, line)
		}
		return ids
	}
	ids, err := batch.DiscoverPatients(cfg.GraphsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return ids
}
