// Package batch scores many patient graphs in one pass, isolating
// per-patient failures so one malformed file never aborts the run.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"graphscore/internal/config"
	"graphscore/internal/errors"
	"graphscore/internal/logging"
	"graphscore/internal/score"
	"graphscore/internal/storage"
	"graphscore/internal/tree"
)

// graphFileSuffix is the segmentation pipeline's naming scheme for
// per-patient graph exports.
const graphFileSuffix = "_graph_ep_transversal_obstruction.json"

// Runner scores patient graphs with a fixed schema and edge key.
type Runner struct {
	Logger   *logging.Logger
	Schema   config.SchemaConfig
	EdgesKey string
	Seed     float64
}

// NewRunner creates a Runner with the default schema.
func NewRunner(logger *logging.Logger) *Runner {
	return &Runner{
		Logger:   logger,
		Schema:   config.Default().Schema,
		EdgesKey: tree.DefaultEdgesKey,
	}
}

// NormalizePatientID zero-pads a numeric patient identifier to the
// 4-digit form used in graph file names ("55" -> "0055").
func NormalizePatientID(id string) string {
	id = strings.TrimSpace(id)
	for len(id) < 4 {
		id = "0" + id
	}
	return id
}

// ResolveGraphPath maps a CLI input to a graph file: an existing path is
// used as-is, anything else is treated as a patient ID and resolved
// against graphsDir (plain JSON first, then gzip).
func ResolveGraphPath(graphsDir, input string) (string, error) {
	if fileExists(input) {
		return input, nil
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	id := NormalizePatientID(stem)
	candidates := []string{
		filepath.Join(graphsDir, id+graphFileSuffix),
		filepath.Join(graphsDir, id+graphFileSuffix+".gz"),
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, nil
		}
	}
	return "", errors.Newf(errors.GraphFileNotFound,
		"no graph file for patient %q: tried %v", id, candidates)
}

// DiscoverPatients lists the patient IDs that have a graph export in
// graphsDir, in lexical (patient ID) order.
func DiscoverPatients(graphsDir string) ([]string, error) {
	entries, err := os.ReadDir(graphsDir)
	if err != nil {
		return nil, errors.Wrap(errors.GraphFileNotFound, "reading graphs directory "+graphsDir, err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".gz")
		id, ok := strings.CutSuffix(name, graphFileSuffix)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadAnnotated loads one graph file and runs the propagation engine
// over it with the runner's schema.
func (r *Runner) LoadAnnotated(path string) (*tree.Graph, error) {
	g, err := tree.Load(path, tree.LoadOptions{EdgesKey: r.EdgesKey})
	if err != nil {
		return nil, err
	}
	return tree.Annotate(g, tree.AnnotateOptions{
		Seed:           r.Seed,
		InputAttr:      r.Schema.InputAttr,
		MaxAttr:        r.Schema.MaxAttr,
		PropagatedAttr: r.Schema.PropagatedAttr,
		CumulatedAttr:  r.Schema.CumulatedAttr,
	})
}

// Options configures one batch run.
type Options struct {
	ScoreName string
	GraphsDir string
	Params    score.Params

	// ObstructionAttrs lists the derived attributes to score per
	// patient. Empty means the single attribute in Params.
	ObstructionAttrs []string
}

// Run scores every patient and collects results and isolated failures.
func (r *Runner) Run(patientIDs []string, opts Options) *storage.ScoreRun {
	attrs := opts.ObstructionAttrs
	if len(attrs) == 0 {
		attr := opts.Params.ObstructionAttr
		if attr == "" {
			attr = r.Schema.MaxAttr
		}
		attrs = []string{attr}
	}

	run := &storage.ScoreRun{
		ID:              uuid.NewString(),
		ScoreName:       opts.ScoreName,
		ObstructionAttr: strings.Join(attrs, ","),
		Mode:            opts.Params.Mode,
		UsePercentage:   opts.Params.UsePercentage,
		MinThresh:       opts.Params.MinObstructionThresh,
		MaxThresh:       opts.Params.MaxObstructionThresh,
		GraphsDir:       opts.GraphsDir,
		CreatedAt:       time.Now().UTC(),
	}

	for _, rawID := range patientIDs {
		id := NormalizePatientID(rawID)
		path, err := ResolveGraphPath(opts.GraphsDir, id)
		if err != nil {
			// Patients without a graph export are expected; skip
			// silently like any other absent data point.
			r.Logger.Debug("No graph file for patient", map[string]interface{}{
				"patient": id,
			})
			continue
		}

		annotated, err := r.LoadAnnotated(path)
		if err != nil {
			r.recordFailure(run, id, err)
			continue
		}

		for _, attr := range attrs {
			params := opts.Params
			params.ObstructionAttr = attr
			s, err := score.Compute(opts.ScoreName, annotated, params)
			if err != nil {
				r.recordFailure(run, id, fmt.Errorf("attr %s: %w", attr, err))
				continue
			}
			run.Scores = append(run.Scores, storage.PatientScore{
				PatientID:       id,
				ObstructionAttr: attr,
				Score:           s,
			})
		}
	}

	r.Logger.Info("Batch scoring finished", map[string]interface{}{
		"run":      run.ID,
		"score":    opts.ScoreName,
		"patients": len(patientIDs),
		"scored":   len(run.Scores),
		"failed":   len(run.Failures),
	})
	return run
}

func (r *Runner) recordFailure(run *storage.ScoreRun, patientID string, err error) {
	r.Logger.Warn("Could not process patient graph", map[string]interface{}{
		"patient": patientID,
		"error":   err.Error(),
	})
	run.Failures = append(run.Failures, storage.PatientFailure{
		PatientID: patientID,
		Error:     err.Error(),
	})
}

// ScoresByPatient indexes a run's scores for one obstruction attribute.
func ScoresByPatient(run *storage.ScoreRun, attr string) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range run.Scores {
		if s.ObstructionAttr == attr {
			out[s.PatientID] = s.Score
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
