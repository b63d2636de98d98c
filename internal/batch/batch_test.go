package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"graphscore/internal/errors"
	"graphscore/internal/logging"
	"graphscore/internal/score"
	"graphscore/internal/tree"
)

const patientGraph = `{
  "directed": true,
  "patient_id": "0055",
  "nodes": [{"id": 0}, {"id": 1}],
  "links": [
    {"source": 0, "target": 1, "level": 2,
     "transversal_obstruction": [0.5], "segments_below": 3}
  ]
}`

const brokenGraph = `{
  "directed": true,
  "nodes": [{"id": 0}, {"id": 1}, {"id": 2}],
  "links": [
    {"source": 0, "target": 2, "level": 2},
    {"source": 1, "target": 2, "level": 2}
  ]
}`

func quietRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: &bytes.Buffer{},
	}))
}

func writeGraph(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestNormalizePatientID(t *testing.T) {
	cases := map[string]string{
		"55":    "0055",
		"0055":  "0055",
		" 7 ":   "0007",
		"12345": "12345",
	}
	for in, want := range cases {
		if got := NormalizePatientID(in); got != want {
			t.Errorf("NormalizePatientID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveGraphPath(t *testing.T) {
	dir := t.TempDir()
	plain := writeGraph(t, dir, "0055"+graphFileSuffix, patientGraph)

	got, err := ResolveGraphPath(dir, "55")
	if err != nil {
		t.Fatalf("resolve by patient ID failed: %v", err)
	}
	if got != plain {
		t.Errorf("path = %s, want %s", got, plain)
	}

	// A direct file path bypasses the naming scheme.
	got, err = ResolveGraphPath("elsewhere", plain)
	if err != nil || got != plain {
		t.Errorf("resolve by path = (%s, %v)", got, err)
	}

	_, err = ResolveGraphPath(dir, "9999")
	if errors.CodeOf(err) != errors.GraphFileNotFound {
		t.Errorf("missing patient: code = %s, want %s", errors.CodeOf(err), errors.GraphFileNotFound)
	}
}

func TestResolveGraphPathGzipFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0056"+graphFileSuffix+".gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating gzip file: %v", err)
	}
	zw := gzip.NewWriter(f)
	zw.Write([]byte(patientGraph))
	zw.Close()
	f.Close()

	got, err := ResolveGraphPath(dir, "56")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != path {
		t.Errorf("path = %s, want %s", got, path)
	}
}

func TestLoadAnnotated(t *testing.T) {
	dir := t.TempDir()
	path := writeGraph(t, dir, "0055"+graphFileSuffix, patientGraph)

	g, err := quietRunner(t).LoadAnnotated(path)
	if err != nil {
		t.Fatalf("LoadAnnotated failed: %v", err)
	}
	e := g.Edges[0]
	if got, _ := e.Float(tree.DefaultMaxAttr); got != 0.5 {
		t.Errorf("%s = %v, want 0.5", tree.DefaultMaxAttr, got)
	}
	if got, _ := e.Float(tree.DefaultPropagatedAttr); got != 0.5 {
		t.Errorf("%s = %v, want 0.5", tree.DefaultPropagatedAttr, got)
	}
}

func TestRunScoresAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "0055"+graphFileSuffix, patientGraph)
	writeGraph(t, dir, "0056"+graphFileSuffix, brokenGraph)

	run := quietRunner(t).Run([]string{"55", "56", "57"}, Options{
		ScoreName: score.NameQanadli,
		GraphsDir: dir,
	})

	if run.ID == "" {
		t.Error("run ID not assigned")
	}
	if len(run.Scores) != 1 {
		t.Fatalf("scores = %+v, want one entry", run.Scores)
	}
	// Mediastinal edge at degree 0.5 with 3 subsegments: 3*1 / (2*3).
	if run.Scores[0].PatientID != "0055" || run.Scores[0].Score != 0.5 {
		t.Errorf("scores[0] = %+v", run.Scores[0])
	}
	// The non-arborescence graph fails, the absent patient is skipped.
	if len(run.Failures) != 1 || run.Failures[0].PatientID != "0056" {
		t.Fatalf("failures = %+v, want only 0056", run.Failures)
	}
}

func TestRunAllAttributes(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "0055"+graphFileSuffix, patientGraph)

	r := quietRunner(t)
	run := r.Run([]string{"0055"}, Options{
		ScoreName:        score.NameMastora,
		GraphsDir:        dir,
		ObstructionAttrs: r.Schema.DerivedAttrs(),
	})

	if len(run.Scores) != 3 {
		t.Fatalf("scores = %d, want one per derived attribute", len(run.Scores))
	}
	seen := map[string]bool{}
	for _, s := range run.Scores {
		seen[s.ObstructionAttr] = true
	}
	for _, attr := range r.Schema.DerivedAttrs() {
		if !seen[attr] {
			t.Errorf("no score for attribute %s", attr)
		}
	}
}

func TestDiscoverPatients(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "0056"+graphFileSuffix, patientGraph)
	writeGraph(t, dir, "0055"+graphFileSuffix+".gz", "")
	writeGraph(t, dir, "notes.txt", "")

	ids, err := DiscoverPatients(dir)
	if err != nil {
		t.Fatalf("DiscoverPatients failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "0055" || ids[1] != "0056" {
		t.Errorf("ids = %v, want [0055 0056]", ids)
	}
}

func TestScoresByPatient(t *testing.T) {
	dir := t.TempDir()
	writeGraph(t, dir, "0055"+graphFileSuffix, patientGraph)

	run := quietRunner(t).Run([]string{"0055"}, Options{
		ScoreName: score.NameQanadli,
		GraphsDir: dir,
	})
	byPatient := ScoresByPatient(run, tree.DefaultMaxAttr)
	if byPatient["0055"] != 0.5 {
		t.Errorf("ScoresByPatient = %v", byPatient)
	}
}
