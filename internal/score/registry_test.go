package score

import (
	"math"
	"testing"

	"graphscore/internal/errors"
	"graphscore/internal/tree"
)

func TestComputeDispatch(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "s", annotatedAttrs(4, 0.3))

	mastora, err := Compute(NameMastora, g, Params{Mode: "s"})
	if err != nil {
		t.Fatalf("Compute(mastora) failed: %v", err)
	}
	if math.Abs(mastora-0.4) > eps {
		t.Errorf("mastora = %v, want 0.4", mastora)
	}

	qanadli, err := Compute(NameQanadli, g, Params{})
	if err != nil {
		t.Fatalf("Compute(qanadli) failed: %v", err)
	}
	// Single segmental edge, bucket 1, weight 1: 1/(2*1).
	if math.Abs(qanadli-0.5) > eps {
		t.Errorf("qanadli = %v, want 0.5", qanadli)
	}
}

func TestComputeUnknownScore(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "s", annotatedAttrs(4, 0.3))

	_, err := Compute("miller", g, Params{})
	if err == nil {
		t.Fatal("expected error for unknown score")
	}
	if errors.CodeOf(err) != errors.ScoreUnknown {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.ScoreUnknown)
	}
}

func TestComputeDebugPassesTrace(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "s", annotatedAttrs(4, 0.8))

	_, matches, err := ComputeDebug(NameQanadli, g, Params{})
	if err != nil {
		t.Fatalf("ComputeDebug failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Label != "S: 0.80 (w:1, d:2)" {
		t.Errorf("label = %q", matches[0].Label)
	}
}
