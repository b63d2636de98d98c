package score

import (
	"fmt"

	"graphscore/internal/errors"
	"graphscore/internal/tree"
)

// ArteryType classifies an edge by its anatomical role.
type ArteryType string

const (
	ArteryRoot        ArteryType = "root"
	ArteryMediastinal ArteryType = "mediastinal"
	ArteryLobar       ArteryType = "lobar"
	ArterySegmental   ArteryType = "segmental"
	ArteryUnknown     ArteryType = ""
)

// QanadliOptions configures the Qanadli scorer.
type QanadliOptions struct {
	// MinObstructionThresh is the degree a mediastinal or lobar segment
	// must strictly exceed to count as a terminal contribution
	// (default 0.25). It is also the lower bucketing threshold.
	MinObstructionThresh float64

	// MaxObstructionThresh separates partial from total obstruction in
	// the bucketing (default 0.75).
	MaxObstructionThresh float64

	// ObstructionAttr is the derived edge attribute to read (default
	// max_transversal_obstruction).
	ObstructionAttr string
}

func (o *QanadliOptions) applyDefaults() error {
	if o.MinObstructionThresh == 0 {
		o.MinObstructionThresh = 0.25
	}
	if o.MaxObstructionThresh == 0 {
		o.MaxObstructionThresh = 0.75
	}
	if o.ObstructionAttr == "" {
		o.ObstructionAttr = tree.DefaultMaxAttr
	}
	if o.MinObstructionThresh < 0 || o.MaxObstructionThresh > 1 ||
		o.MinObstructionThresh > o.MaxObstructionThresh {
		return errors.Newf(errors.ThresholdInvalid,
			"thresholds min=%v max=%v must satisfy 0 <= min <= max <= 1",
			o.MinObstructionThresh, o.MaxObstructionThresh)
	}
	return nil
}

// contribution is one scored segment: its territory weight and degree.
type contribution struct {
	edge   *tree.Edge
	kind   ArteryType
	weight int
	degree float64
}

// Qanadli computes the Qanadli score in [0,1]: obstructed segments are
// weighted by the count of distal subsegments they supply and bucketed at
// two severity thresholds, normalized by the theoretical maximum 2*Σw.
func Qanadli(g *tree.Graph, opts QanadliOptions) (float64, error) {
	s, _, err := qanadli(g, opts, false)
	return s, err
}

// QanadliDebug is Qanadli plus the ordered matched edges and labels.
func QanadliDebug(g *tree.Graph, opts QanadliOptions) (float64, []Match, error) {
	return qanadli(g, opts, true)
}

func qanadli(g *tree.Graph, opts QanadliOptions, debug bool) (float64, []Match, error) {
	if err := opts.applyDefaults(); err != nil {
		return 0, nil, err
	}
	root, err := g.FindRoot()
	if err != nil {
		return 0, nil, err
	}

	contribs := collectContributions(g, root, opts)

	var matches []Match
	if debug {
		matches = make([]Match, len(contribs))
		for i, c := range contribs {
			matches[i] = Match{
				Edge: c.edge,
				Label: fmt.Sprintf("%s: %.2f (w:%d, d:%d)",
					levelInitial(c.edge.Level()), c.degree,
					c.weight, bucket(c.degree, opts)),
			}
		}
	}

	if len(contribs) == 0 {
		return 0.0, matches, nil
	}

	weightSum := 0
	weightedSum := 0
	for _, c := range contribs {
		weightSum += c.weight
		weightedSum += c.weight * bucket(c.degree, opts)
	}
	// All-zero weights with non-empty contributions would divide by
	// zero; the score is defined as 0.0 in that case.
	if weightSum == 0 {
		return 0.0, matches, nil
	}
	return float64(weightedSum) / float64(2*weightSum), matches, nil
}

// collectContributions walks the tree depth-first from root and gathers
// terminal contributions. Mediastinal and lobar segments whose degree
// strictly exceeds the lower threshold subsume their whole subtree and
// stop the walk there; otherwise the walk continues below them.
// Segmental edges always contribute with weight 1 and are never
// descended past. Root edges only pass the walk through.
func collectContributions(g *tree.Graph, root interface{}, opts QanadliOptions) []contribution {
	var contribs []contribution

	var stack []*tree.Edge
	push := func(node interface{}) {
		edges := g.OutEdges(node)
		for i := len(edges) - 1; i >= 0; i-- {
			stack = append(stack, edges[i])
		}
	}
	push(root)

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		degree := e.OwnDegree(opts.ObstructionAttr)
		switch classify(e) {
		case ArteryMediastinal, ArteryLobar:
			if degree > opts.MinObstructionThresh {
				contribs = append(contribs, contribution{
					edge:   e,
					kind:   classify(e),
					weight: subsegmentsBelow(e),
					degree: degree,
				})
			} else {
				push(e.Target)
			}
		case ArterySegmental:
			contribs = append(contribs, contribution{
				edge:   e,
				kind:   ArterySegmental,
				weight: 1,
				degree: degree,
			})
		case ArteryRoot:
			push(e.Target)
		}
	}
	return contribs
}

// classify maps an edge's level to its artery type. Levels above 4 are
// subsegmental and excluded from scoring.
func classify(e *tree.Edge) ArteryType {
	switch e.Level() {
	case 1:
		return ArteryRoot
	case 2:
		return ArteryMediastinal
	case 3:
		// A level-3 segment whose recorded successors are all segmental
		// could arguably be graded as segmental; both cases grade as
		// lobar, and the check is kept for parity with the clinical
		// definition.
		for _, succ := range e.NestedSuccessors() {
			if tree.AttrInt(succ, tree.LevelAttr) != 4 {
				return ArteryLobar
			}
		}
		return ArteryLobar
	case 4:
		return ArterySegmental
	default:
		return ArteryUnknown
	}
}

// levelInitial is the artery-type letter used in debug labels.
func levelInitial(level int) string {
	switch level {
	case 1:
		return "R"
	case 2:
		return "M"
	case 3:
		return "L"
	case 4:
		return "S"
	default:
		return "?"
	}
}

// bucket maps a degree to its ordinal severity multiplier: 0 below the
// lower threshold, 1 below the upper, 2 otherwise.
func bucket(degree float64, opts QanadliOptions) int {
	switch {
	case degree < opts.MinObstructionThresh:
		return 0
	case degree < opts.MaxObstructionThresh:
		return 1
	default:
		return 2
	}
}

// subsegmentsBelow resolves the territory weight of a non-segmental
// terminal contribution. Starting from the edge's own attribute
// snapshot, entries at level <= 4 contribute their segments_below count;
// subsegmental entries (level > 4) are expanded through their nested
// successors instead of being counted themselves.
func subsegmentsBelow(e *tree.Edge) int {
	total := 0
	stack := []map[string]interface{}{e.Attrs}
	for len(stack) > 0 {
		attrs := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if tree.AttrInt(attrs, tree.LevelAttr) <= 4 {
			total += tree.AttrInt(attrs, tree.SegmentsBelowAttr)
		} else {
			stack = append(stack, tree.SuccessorAttrs(attrs)...)
		}
	}
	return total
}
