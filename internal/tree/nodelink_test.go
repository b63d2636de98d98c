package tree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"graphscore/internal/errors"
)

const sampleJSON = `{
  "directed": true,
  "multigraph": false,
  "graph": {"patient_id": "0055"},
  "nodes": [
    {"id": "root"},
    {"id": "m1"},
    {"id": "s1"}
  ],
  "links": [
    {"source": "root", "target": "m1", "level": 2,
     "transversal_obstruction": [0.1, 0.5, 0.3], "segments_below": 3},
    {"source": "m1", "target": "s1", "level": 4,
     "transversal_obstruction": [0.5], "segments_below": 3}
  ]
}`

func TestDecodeSample(t *testing.T) {
	g, err := Decode(strings.NewReader(sampleJSON), LoadOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if g.NumNodes() != 3 || g.NumEdges() != 2 {
		t.Fatalf("got %d nodes / %d edges, want 3 / 2", g.NumNodes(), g.NumEdges())
	}
	e := g.Edges[0]
	if e.Level() != 2 {
		t.Errorf("level = %d, want 2", e.Level())
	}
	if got := e.OwnDegree(DefaultInputAttr); got != 0.5 {
		t.Errorf("own degree = %v, want 0.5", got)
	}
	if got := e.Int(SegmentsBelowAttr); got != 3 {
		t.Errorf("segments_below = %d, want 3", got)
	}
}

func TestDecodeRejectsNonArborescence(t *testing.T) {
	doc := `{
	  "nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
	  "links": [
	    {"source": "a", "target": "c"},
	    {"source": "b", "target": "c"}
	  ]
	}`
	_, err := Decode(strings.NewReader(doc), LoadOptions{})
	if err == nil {
		t.Fatal("expected structural error")
	}
	if !errors.IsStructural(err) {
		t.Errorf("code = %s, want structural", errors.CodeOf(err))
	}
}

func TestDecodeEdgesKeyOverride(t *testing.T) {
	doc := `{
	  "nodes": [{"id": "a"}, {"id": "b"}],
	  "edges": [{"source": "a", "target": "b", "level": 1}]
	}`
	g, err := Decode(strings.NewReader(doc), LoadOptions{EdgesKey: "edges"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if g.NumEdges() != 1 {
		t.Fatalf("got %d edges, want 1", g.NumEdges())
	}
}

func TestRoundTripPreservesAttributes(t *testing.T) {
	g, err := Decode(strings.NewReader(sampleJSON), LoadOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	annotated, err := Annotate(g, AnnotateOptions{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	data, err := Encode(annotated, "")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := Decode(strings.NewReader(string(data)), LoadOptions{})
	if err != nil {
		t.Fatalf("re-Decode failed: %v", err)
	}

	if back.NumNodes() != annotated.NumNodes() || back.NumEdges() != annotated.NumEdges() {
		t.Fatalf("round trip changed structure: %d/%d vs %d/%d",
			back.NumNodes(), back.NumEdges(), annotated.NumNodes(), annotated.NumEdges())
	}
	for i, e := range annotated.Edges {
		b := back.Edges[i]
		// Integers survive bit-exact through json.Number.
		if e.Int(SegmentsBelowAttr) != b.Int(SegmentsBelowAttr) {
			t.Errorf("edge %d segments_below changed", i)
		}
		for _, attr := range []string{DefaultMaxAttr, DefaultPropagatedAttr, DefaultCumulatedAttr} {
			want, _ := e.Float(attr)
			got, ok := b.Float(attr)
			if !ok || got != want {
				t.Errorf("edge %d %s = %v, want %v", i, attr, got, want)
			}
		}
	}
	// Graph metadata rides along.
	meta, _ := back.Meta["graph"].(map[string]interface{})
	if meta["patient_id"] != "0055" {
		t.Errorf("graph metadata lost: %v", back.Meta["graph"])
	}
}

func TestLoadSaveGzip(t *testing.T) {
	dir := t.TempDir()
	g, err := Decode(strings.NewReader(sampleJSON), LoadOptions{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	path := filepath.Join(dir, "graph.json.gz")
	if err := Save(g, path, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// File on disk must not be plain JSON.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if json.Valid(raw) {
		t.Error("gzip output is unexpectedly plain JSON")
	}

	back, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if back.NumNodes() != g.NumNodes() || back.NumEdges() != g.NumEdges() {
		t.Errorf("gzip round trip changed structure")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), LoadOptions{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.CodeOf(err) != errors.GraphFileNotFound {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.GraphFileNotFound)
	}
}
