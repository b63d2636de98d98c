package tree

// Default attribute names for the propagation engine, matching the
// segmentation pipeline's schema.
const (
	DefaultInputAttr      = "transversal_obstruction"
	DefaultMaxAttr        = "max_transversal_obstruction"
	DefaultPropagatedAttr = "max_transversal_obstruction_propagated"
	DefaultCumulatedAttr  = "max_transversal_obstruction_cumulated"
)

// CombineFunc merges the parent's accumulated obstruction with an edge's
// own degree into the edge's accumulated value.
type CombineFunc func(parent, own float64) float64

// MaxCombine carries the running maximum obstruction down the tree.
func MaxCombine(parent, own float64) float64 {
	if parent > own {
		return parent
	}
	return own
}

// UnionCombine composes obstruction as independent probabilities:
// 1 - (1-own)*(1-parent). Stays in [0,1] for inputs in [0,1].
func UnionCombine(parent, own float64) float64 {
	return 1 - (1-own)*(1-parent)
}

// AnnotateOptions configures one propagation pass.
type AnnotateOptions struct {
	// Root overrides root auto-detection when non-nil.
	Root interface{}

	// Seed is the accumulated obstruction assumed above the root
	// (default 0.0).
	Seed float64

	// InputAttr names the raw measurement; the derived triple is written
	// under MaxAttr, PropagatedAttr and CumulatedAttr.
	InputAttr      string
	MaxAttr        string
	PropagatedAttr string
	CumulatedAttr  string

	// PropagateFn and CumulateFn are the combination strategies
	// (default MaxCombine and UnionCombine).
	PropagateFn CombineFunc
	CumulateFn  CombineFunc
}

// DefaultAnnotateOptions returns the schema and strategies used by the
// clinical scorers.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		InputAttr:      DefaultInputAttr,
		MaxAttr:        DefaultMaxAttr,
		PropagatedAttr: DefaultPropagatedAttr,
		CumulatedAttr:  DefaultCumulatedAttr,
	}
}

func (o *AnnotateOptions) applyDefaults() {
	if o.InputAttr == "" {
		o.InputAttr = DefaultInputAttr
	}
	if o.MaxAttr == "" {
		o.MaxAttr = DefaultMaxAttr
	}
	if o.PropagatedAttr == "" {
		o.PropagatedAttr = DefaultPropagatedAttr
	}
	if o.CumulatedAttr == "" {
		o.CumulatedAttr = DefaultCumulatedAttr
	}
	if o.PropagateFn == nil {
		o.PropagateFn = MaxCombine
	}
	if o.CumulateFn == nil {
		o.CumulateFn = UnionCombine
	}
}

// Annotate walks the tree depth-first from the root and returns a deep
// copy where every edge carries the derived triple: its own degree (max
// of the raw measurement), the propagated value combined with the
// parent's, and the cumulated value. The input graph is never mutated.
// Each edge is visited exactly once; the single-parent invariant
// guarantees no revisits.
func Annotate(g *Graph, opts AnnotateOptions) (*Graph, error) {
	opts.applyDefaults()

	out := g.Copy()
	root := opts.Root
	if root == nil {
		var err error
		root, err = out.FindRoot()
		if err != nil {
			return nil, err
		}
	}

	type frame struct {
		node       interface{}
		propagated float64
		cumulated  float64
	}
	stack := []frame{{node: root, propagated: opts.Seed, cumulated: opts.Seed}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range out.OutEdges(f.node) {
			own := e.OwnDegree(opts.InputAttr)
			prop := opts.PropagateFn(f.propagated, own)
			cum := opts.CumulateFn(f.cumulated, own)

			e.Set(opts.MaxAttr, own)
			e.Set(opts.PropagatedAttr, prop)
			e.Set(opts.CumulatedAttr, cum)

			stack = append(stack, frame{node: e.Target, propagated: prop, cumulated: cum})
		}
	}
	return out, nil
}

// CumulativeValues runs a single-attribute propagation pass and returns
// the accumulated value per edge without copying the graph, for callers
// that only need the numbers (e.g. visualization color ramps).
func CumulativeValues(g *Graph, inputAttr string, seed float64, combine CombineFunc) (map[*Edge]float64, error) {
	if inputAttr == "" {
		inputAttr = DefaultInputAttr
	}
	if combine == nil {
		combine = MaxCombine
	}
	root, err := g.FindRoot()
	if err != nil {
		return nil, err
	}

	values := make(map[*Edge]float64, g.NumEdges())
	type frame struct {
		node interface{}
		cum  float64
	}
	stack := []frame{{node: root, cum: seed}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.OutEdges(f.node) {
			cum := combine(f.cum, e.OwnDegree(inputAttr))
			values[e] = cum
			stack = append(stack, frame{node: e.Target, cum: cum})
		}
	}
	return values, nil
}
