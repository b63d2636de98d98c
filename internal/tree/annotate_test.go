package tree

import (
	"math"
	"testing"
)

const eps = 1e-9

// chain builds root -> n1 -> n2 -> ... with the given raw degrees.
func chain(degrees ...float64) *Graph {
	g := NewGraph()
	prev := "root"
	for i, d := range degrees {
		next := string(rune('a' + i))
		g.AddEdge(prev, next, edgeAttrs(i+1, d))
		prev = next
	}
	return g
}

func TestAnnotateDerivedTriple(t *testing.T) {
	g := chain(0.6, 0.2, 0.8)
	out, err := Annotate(g, AnnotateOptions{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	wantProp := []float64{0.6, 0.6, 0.8}
	// union: 0.6, then 1-(1-0.2)*0.4=0.68, then 1-(1-0.8)*0.32=0.936
	wantCum := []float64{0.6, 0.68, 0.936}
	for i, e := range out.Edges {
		own, _ := e.Float(DefaultMaxAttr)
		prop, _ := e.Float(DefaultPropagatedAttr)
		cum, _ := e.Float(DefaultCumulatedAttr)

		if math.Abs(prop-wantProp[i]) > eps {
			t.Errorf("edge %d propagated = %v, want %v", i, prop, wantProp[i])
		}
		if math.Abs(cum-wantCum[i]) > eps {
			t.Errorf("edge %d cumulated = %v, want %v", i, cum, wantCum[i])
		}
		if prop < own-eps {
			t.Errorf("edge %d propagated %v below own %v", i, prop, own)
		}
	}
}

func TestAnnotateMonotonicityAndBounds(t *testing.T) {
	g := NewGraph()
	g.AddEdge("root", "a", edgeAttrs(1, 0.3))
	g.AddEdge("a", "b", edgeAttrs(2, 0.1))
	g.AddEdge("a", "c", edgeAttrs(2, 0.95))
	g.AddEdge("b", "d", edgeAttrs(3, 0.0))
	g.AddEdge("c", "e", edgeAttrs(3, 0.5))

	out, err := Annotate(g, AnnotateOptions{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	parentProp := map[interface{}]float64{"root": 0.0}
	parentCum := map[interface{}]float64{"root": 0.0}
	// Walk in BFS order over the recorded edges.
	for _, e := range out.Edges {
		own, _ := e.Float(DefaultMaxAttr)
		prop, _ := e.Float(DefaultPropagatedAttr)
		cum, _ := e.Float(DefaultCumulatedAttr)

		if prop < own || prop < parentProp[e.Source] {
			t.Errorf("propagated %v violates monotonicity (own %v, parent %v)",
				prop, own, parentProp[e.Source])
		}
		if cum < 0 || cum > 1 {
			t.Errorf("cumulated %v out of [0,1]", cum)
		}
		if cum < own-eps || cum < parentCum[e.Source]-eps {
			t.Errorf("cumulated %v below own %v or parent %v", cum, own, parentCum[e.Source])
		}
		parentProp[e.Target] = prop
		parentCum[e.Target] = cum
	}
}

func TestAnnotateMissingMeasurementDefaultsToZero(t *testing.T) {
	g := NewGraph()
	g.AddEdge("root", "a", map[string]interface{}{LevelAttr: 2})

	out, err := Annotate(g, AnnotateOptions{})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	own, ok := out.Edges[0].Float(DefaultMaxAttr)
	if !ok || own != 0.0 {
		t.Errorf("own degree = %v (ok=%v), want 0.0", own, ok)
	}
}

func TestAnnotateSeed(t *testing.T) {
	g := chain(0.1)
	out, err := Annotate(g, AnnotateOptions{Seed: 0.5})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	prop, _ := out.Edges[0].Float(DefaultPropagatedAttr)
	if prop != 0.5 {
		t.Errorf("propagated with seed = %v, want 0.5", prop)
	}
	cum, _ := out.Edges[0].Float(DefaultCumulatedAttr)
	if math.Abs(cum-0.55) > eps {
		t.Errorf("cumulated with seed = %v, want 0.55", cum)
	}
}

func TestAnnotateCustomStrategy(t *testing.T) {
	g := chain(0.25, 0.25)
	sum := func(parent, own float64) float64 { return parent + own }

	out, err := Annotate(g, AnnotateOptions{PropagateFn: sum})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	prop, _ := out.Edges[1].Float(DefaultPropagatedAttr)
	if math.Abs(prop-0.5) > eps {
		t.Errorf("custom strategy propagated = %v, want 0.5", prop)
	}
}

func TestAnnotateDoesNotMutateInput(t *testing.T) {
	g := chain(0.4)
	if _, err := Annotate(g, AnnotateOptions{}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if _, ok := g.Edges[0].Attrs[DefaultMaxAttr]; ok {
		t.Error("input graph gained derived attribute")
	}
}

func TestAnnotateCustomAttributeNames(t *testing.T) {
	g := NewGraph()
	g.AddEdge("root", "a", map[string]interface{}{
		LevelAttr: 2,
		"occ":     []interface{}{0.3, 0.7},
	})

	out, err := Annotate(g, AnnotateOptions{
		InputAttr:      "occ",
		MaxAttr:        "occ_max",
		PropagatedAttr: "occ_prop",
		CumulatedAttr:  "occ_cum",
	})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	own, ok := out.Edges[0].Float("occ_max")
	if !ok || own != 0.7 {
		t.Errorf("occ_max = %v (ok=%v), want 0.7", own, ok)
	}
	if _, ok := out.Edges[0].Attrs[DefaultMaxAttr]; ok {
		t.Error("default attribute name written despite override")
	}
}

func TestCumulativeValues(t *testing.T) {
	g := chain(0.2, 0.6, 0.3)
	vals, err := CumulativeValues(g, DefaultInputAttr, 0.0, nil)
	if err != nil {
		t.Fatalf("CumulativeValues failed: %v", err)
	}
	want := []float64{0.2, 0.6, 0.6}
	for i, e := range g.Edges {
		if math.Abs(vals[e]-want[i]) > eps {
			t.Errorf("edge %d cumulative = %v, want %v", i, vals[e], want[i])
		}
	}
	// Graph itself stays untouched.
	if _, ok := g.Edges[0].Attrs[DefaultMaxAttr]; ok {
		t.Error("CumulativeValues mutated the graph")
	}
}
