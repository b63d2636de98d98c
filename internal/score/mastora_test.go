package score

import (
	"math"
	"testing"

	"graphscore/internal/errors"
	"graphscore/internal/tree"
)

const eps = 1e-9

func annotatedAttrs(level int, degree float64) map[string]interface{} {
	return map[string]interface{}{
		tree.LevelAttr:      level,
		tree.DefaultMaxAttr: degree,
	}
}

func TestMastoraSegmentalMode(t *testing.T) {
	// Two segmental edges at 0.3 and 0.9: grades 2 and 4, (2+4)/(2*5).
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(1, 0.0))
	g.AddEdge("a", "s1", annotatedAttrs(4, 0.3))
	g.AddEdge("a", "s2", annotatedAttrs(4, 0.9))

	got, err := Mastora(g, MastoraOptions{Mode: "s"})
	if err != nil {
		t.Fatalf("Mastora failed: %v", err)
	}
	if math.Abs(got-0.6) > eps {
		t.Errorf("score = %v, want 0.6", got)
	}
}

func TestMastoraScaleEquivalence(t *testing.T) {
	for _, d := range []float64{0.0, 0.1, 0.3, 0.5, 0.74, 0.99} {
		g := tree.NewGraph()
		g.AddEdge("root", "m", annotatedAttrs(2, d))

		discrete, err := Mastora(g, MastoraOptions{Mode: "m"})
		if err != nil {
			t.Fatalf("Mastora failed: %v", err)
		}
		wantDiscrete := (math.Floor(d/0.25) + 1) / 5
		if math.Abs(discrete-wantDiscrete) > eps {
			t.Errorf("d=%v: discrete score = %v, want %v", d, discrete, wantDiscrete)
		}

		pct, err := Mastora(g, MastoraOptions{Mode: "m", UsePercentage: true})
		if err != nil {
			t.Fatalf("Mastora failed: %v", err)
		}
		if math.Abs(pct-d) > eps {
			t.Errorf("d=%v: percentage score = %v", d, pct)
		}
	}
}

func TestMastoraModeLevelSets(t *testing.T) {
	// level 1 and 2 edges count under 'm', level 3 under 'l'.
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(1, 1.0))
	g.AddEdge("a", "b", annotatedAttrs(2, 1.0))
	g.AddEdge("b", "c", annotatedAttrs(3, 1.0))
	g.AddEdge("c", "d", annotatedAttrs(4, 1.0))

	cases := []struct {
		mode    string
		matches int
	}{
		{"m", 2},
		{"l", 1},
		{"s", 1},
		{"ml", 3},
		{"mls", 4},
	}
	for _, tc := range cases {
		_, matches, err := MastoraDebug(g, MastoraOptions{Mode: tc.mode})
		if err != nil {
			t.Fatalf("mode %q failed: %v", tc.mode, err)
		}
		if len(matches) != tc.matches {
			t.Errorf("mode %q matched %d edges, want %d", tc.mode, len(matches), tc.matches)
		}
	}
}

func TestMastoraReachesDeepLevelsThroughShallowOnes(t *testing.T) {
	// Segmental edges sit below excluded levels; the walk must still
	// reach them.
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(1, 0.2))
	g.AddEdge("a", "b", annotatedAttrs(2, 0.2))
	g.AddEdge("b", "c", annotatedAttrs(3, 0.2))
	g.AddEdge("c", "d", annotatedAttrs(4, 0.6))

	got, err := Mastora(g, MastoraOptions{Mode: "s", UsePercentage: true})
	if err != nil {
		t.Fatalf("Mastora failed: %v", err)
	}
	if math.Abs(got-0.6) > eps {
		t.Errorf("score = %v, want 0.6", got)
	}
}

func TestMastoraNoMatchesIsZero(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(1, 0.9))

	score, matches, err := MastoraDebug(g, MastoraOptions{Mode: "l"})
	if err != nil {
		t.Fatalf("Mastora failed: %v", err)
	}
	if score != 0.0 {
		t.Errorf("score = %v, want exactly 0.0", score)
	}
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0", len(matches))
	}
}

func TestMastoraInvalidMode(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(2, 0.5))

	_, err := Mastora(g, MastoraOptions{Mode: "mx"})
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if errors.CodeOf(err) != errors.ModeInvalid {
		t.Errorf("code = %s, want %s", errors.CodeOf(err), errors.ModeInvalid)
	}
}

func TestMastoraRange(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(2, 0.99))
	g.AddEdge("a", "b", annotatedAttrs(3, 0.0))
	g.AddEdge("a", "c", annotatedAttrs(4, 1.0))

	for _, pct := range []bool{false, true} {
		got, err := Mastora(g, MastoraOptions{UsePercentage: pct})
		if err != nil {
			t.Fatalf("Mastora failed: %v", err)
		}
		if got < 0 || got > 1 {
			t.Errorf("score %v out of [0,1] (usePercentage=%v)", got, pct)
		}
	}
}

func TestMastoraDebugTraversalOrder(t *testing.T) {
	// Pre-order: first child's subtree before the second child.
	g := tree.NewGraph()
	g.AddEdge("root", "a", annotatedAttrs(2, 0.1))
	g.AddEdge("a", "a1", annotatedAttrs(4, 0.2))
	g.AddEdge("root", "b", annotatedAttrs(2, 0.3))

	_, matches, err := MastoraDebug(g, MastoraOptions{Mode: "ms"})
	if err != nil {
		t.Fatalf("Mastora failed: %v", err)
	}
	var targets []interface{}
	for _, m := range matches {
		targets = append(targets, m.Edge.Target)
	}
	want := []interface{}{"a", "a1", "b"}
	if len(targets) != len(want) {
		t.Fatalf("matched %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, targets[i], want[i])
		}
	}
}

func TestMastoraObstructionAttrOverride(t *testing.T) {
	g := tree.NewGraph()
	g.AddEdge("root", "a", map[string]interface{}{
		tree.LevelAttr:             2,
		tree.DefaultMaxAttr:        0.1,
		tree.DefaultPropagatedAttr: 0.8,
	})

	got, err := Mastora(g, MastoraOptions{
		Mode:            "m",
		UsePercentage:   true,
		ObstructionAttr: tree.DefaultPropagatedAttr,
	})
	if err != nil {
		t.Fatalf("Mastora failed: %v", err)
	}
	if math.Abs(got-0.8) > eps {
		t.Errorf("score = %v, want 0.8", got)
	}
}
