package score

import (
	"sort"

	"graphscore/internal/errors"
	"graphscore/internal/tree"
)

// Score names accepted by Compute.
const (
	NameMastora = "mastora"
	NameQanadli = "qanadli"
)

// Params bundles every knob the CLI and batch layers expose, so scorers
// can be addressed by name with one parameter set.
type Params struct {
	ObstructionAttr      string
	UsePercentage        bool
	Mode                 string
	MinObstructionThresh float64
	MaxObstructionThresh float64
}

// Compute runs the named scorer over an annotated tree. Unknown names
// are a configuration error.
func Compute(name string, g *tree.Graph, p Params) (float64, error) {
	s, _, err := compute(name, g, p, false)
	return s, err
}

// ComputeDebug runs the named scorer and returns its debug trace.
func ComputeDebug(name string, g *tree.Graph, p Params) (float64, []Match, error) {
	return compute(name, g, p, true)
}

func compute(name string, g *tree.Graph, p Params, debug bool) (float64, []Match, error) {
	switch name {
	case NameMastora:
		opts := MastoraOptions{
			Mode:            p.Mode,
			UsePercentage:   p.UsePercentage,
			ObstructionAttr: p.ObstructionAttr,
		}
		if debug {
			return MastoraDebug(g, opts)
		}
		s, err := Mastora(g, opts)
		return s, nil, err
	case NameQanadli:
		opts := QanadliOptions{
			MinObstructionThresh: p.MinObstructionThresh,
			MaxObstructionThresh: p.MaxObstructionThresh,
			ObstructionAttr:      p.ObstructionAttr,
		}
		if debug {
			return QanadliDebug(g, opts)
		}
		s, err := Qanadli(g, opts)
		return s, nil, err
	default:
		return 0, nil, errors.Newf(errors.ScoreUnknown,
			"unknown score %q: expected one of %v", name, Names())
	}
}

// Names lists the available score names.
func Names() []string {
	names := []string{NameMastora, NameQanadli}
	sort.Strings(names)
	return names
}
