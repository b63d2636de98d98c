// Package score implements the Mastora and Qanadli clinical obstruction
// scores over annotated arterial trees.
package score

import (
	"fmt"

	"graphscore/internal/errors"
	"graphscore/internal/tree"
)

// Match is one edge a scorer counted, with a human-readable label for
// visualization overlays. Matches are reported in traversal order.
type Match struct {
	Edge  *tree.Edge
	Label string
}

// MastoraOptions configures the Mastora scorer.
type MastoraOptions struct {
	// Mode selects the anatomical levels to include, any combination of
	// 'm' (mediastinal, levels 1-2), 'l' (lobar, level 3) and
	// 's' (segmental, level 4). Default "mls".
	Mode string

	// UsePercentage sums raw [0,1] fractions instead of the discrete
	// 5-point grading.
	UsePercentage bool

	// ObstructionAttr is the derived edge attribute to read (default
	// max_transversal_obstruction).
	ObstructionAttr string
}

var mastoraLevels = map[rune][]int{
	'm': {1, 2},
	'l': {3},
	's': {4},
}

// parseMode expands a mode string into the set of included levels.
// Characters outside {m,l,s} are a configuration error.
func parseMode(mode string) (map[int]bool, error) {
	if mode == "" {
		mode = "mls"
	}
	levels := make(map[int]bool)
	for _, c := range mode {
		lvls, ok := mastoraLevels[c]
		if !ok {
			return nil, errors.Newf(errors.ModeInvalid,
				"invalid mode character %q: expected only 'm', 'l', 's'", c)
		}
		for _, l := range lvls {
			levels[l] = true
		}
	}
	return levels, nil
}

// Mastora computes the Mastora score in [0,1] on a tree annotated by the
// propagation engine. Edges at the included levels contribute their
// obstruction degree; with UsePercentage unset each degree d maps to the
// clinical 5-point grade floor(d/0.25)+1 and the sum is normalized by
// 5 per edge. No qualifying edges yields exactly 0.0.
func Mastora(g *tree.Graph, opts MastoraOptions) (float64, error) {
	s, _, err := mastora(g, opts, false)
	return s, err
}

// MastoraDebug is Mastora plus the ordered matched edges and labels.
func MastoraDebug(g *tree.Graph, opts MastoraOptions) (float64, []Match, error) {
	return mastora(g, opts, true)
}

func mastora(g *tree.Graph, opts MastoraOptions, debug bool) (float64, []Match, error) {
	levels, err := parseMode(opts.Mode)
	if err != nil {
		return 0, nil, err
	}
	attr := opts.ObstructionAttr
	if attr == "" {
		attr = tree.DefaultMaxAttr
	}

	root, err := g.FindRoot()
	if err != nil {
		return 0, nil, err
	}

	var degrees []float64
	var matches []Match

	// The whole tree is walked regardless of level so that deeper
	// included levels are still reached.
	for _, e := range preorderEdges(g, root) {
		if !levels[e.Level()] {
			continue
		}
		deg := e.OwnDegree(attr)
		degrees = append(degrees, deg)
		if debug {
			matches = append(matches, Match{
				Edge:  e,
				Label: fmt.Sprintf("%s: %.2f (g:%d)", levelInitial(e.Level()), deg, grade(deg)),
			})
		}
	}

	if len(degrees) == 0 {
		return 0.0, matches, nil
	}
	return mastoraScore(degrees, opts.UsePercentage), matches, nil
}

// mastoraScore aggregates collected degrees. With usePercentage the raw
// fractions are averaged; otherwise each is discretized to the 5-point
// grade first and the sum is divided by 5n.
func mastoraScore(degrees []float64, usePercentage bool) float64 {
	n := float64(len(degrees))
	if usePercentage {
		sum := 0.0
		for _, d := range degrees {
			sum += d
		}
		return sum / n
	}
	sum := 0
	for _, d := range degrees {
		sum += grade(d)
	}
	return float64(sum) / (n * 5)
}

// grade maps a [0,1] obstruction fraction onto the 5-point Mastora scale.
func grade(degree float64) int {
	return int(degree/0.25) + 1
}

// preorderEdges returns the tree's edges in depth-first pre-order from
// root: each edge before its subtree, siblings in insertion order.
func preorderEdges(g *tree.Graph, root interface{}) []*tree.Edge {
	var out []*tree.Edge
	var stack []*tree.Edge
	push := func(edges []*tree.Edge) {
		// Reversed, so the first sibling is popped first.
		for i := len(edges) - 1; i >= 0; i-- {
			stack = append(stack, edges[i])
		}
	}
	push(g.OutEdges(root))
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, e)
		push(g.OutEdges(e.Target))
	}
	return out
}
