// Package tree models the rooted arterial tree extracted from CT
// angiography segmentation and implements the attribute propagation
// engine the clinical scorers run on.
package tree

import (
	"fmt"

	"graphscore/internal/errors"
)

// Node is a graph node together with its serialized attributes.
// IDs keep whatever JSON type the node-link file used (string or number)
// so that round-tripping a graph preserves it exactly.
type Node struct {
	ID    interface{}
	Attrs map[string]interface{}
}

// Edge is one arterial segment between two nodes. All per-segment
// measurements live in Attrs under the schema's attribute names.
type Edge struct {
	Source interface{}
	Target interface{}
	Attrs  map[string]interface{}
}

// Graph is a directed graph in insertion order. The scoring pipeline
// requires it to be an arborescence; Validate enforces that.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	// Graph-level metadata from the node-link envelope ("graph" object,
	// directed/multigraph flags), preserved for round-tripping.
	Meta map[string]interface{}

	nodeIdx  map[string]*Node
	outEdges map[string][]*Edge
	inDegree map[string]int
}

// NewGraph creates an empty directed graph.
func NewGraph() *Graph {
	return &Graph{
		Meta:     map[string]interface{}{},
		nodeIdx:  make(map[string]*Node),
		outEdges: make(map[string][]*Edge),
		inDegree: make(map[string]int),
	}
}

// idKey maps a node ID to a map key. The type tag keeps string "1" and
// numeric 1 distinct.
func idKey(id interface{}) string {
	return fmt.Sprintf("%T:%v", id, id)
}

// AddNode adds a node if its ID is not present yet and returns it.
func (g *Graph) AddNode(id interface{}) *Node {
	key := idKey(id)
	if n, ok := g.nodeIdx[key]; ok {
		return n
	}
	n := &Node{ID: id, Attrs: map[string]interface{}{}}
	g.Nodes = append(g.Nodes, n)
	g.nodeIdx[key] = n
	return n
}

// AddEdge adds a directed edge, creating missing endpoint nodes.
func (g *Graph) AddEdge(source, target interface{}, attrs map[string]interface{}) *Edge {
	g.AddNode(source)
	g.AddNode(target)
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	e := &Edge{Source: source, Target: target, Attrs: attrs}
	g.Edges = append(g.Edges, e)
	g.outEdges[idKey(source)] = append(g.outEdges[idKey(source)], e)
	g.inDegree[idKey(target)]++
	return e
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id interface{}) bool {
	_, ok := g.nodeIdx[idKey(id)]
	return ok
}

// OutEdges returns the outgoing edges of a node in insertion order.
func (g *Graph) OutEdges(id interface{}) []*Edge {
	return g.outEdges[idKey(id)]
}

// InDegree returns the number of incoming edges of a node.
func (g *Graph) InDegree(id interface{}) int {
	return g.inDegree[idKey(id)]
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.Nodes)
}

// NumEdges returns the number of edges in the graph.
func (g *Graph) NumEdges() int {
	return len(g.Edges)
}

// Copy returns a deep copy of the graph. Attribute maps are cloned
// recursively so mutating the copy never touches the original.
func (g *Graph) Copy() *Graph {
	c := NewGraph()
	c.Meta = copyValue(g.Meta).(map[string]interface{})
	for _, n := range g.Nodes {
		cn := c.AddNode(n.ID)
		cn.Attrs = copyValue(n.Attrs).(map[string]interface{})
	}
	for _, e := range g.Edges {
		c.AddEdge(e.Source, e.Target, copyValue(e.Attrs).(map[string]interface{}))
	}
	return c
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = copyValue(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = copyValue(val)
		}
		return s
	default:
		return v
	}
}

// FindRoot returns the unique node with in-degree 0.
// It fails with a structural error when the graph has no such node or
// more than one; the ambiguous case lists every candidate.
func (g *Graph) FindRoot() (interface{}, error) {
	var roots []interface{}
	for _, n := range g.Nodes {
		if g.inDegree[idKey(n.ID)] == 0 {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		return nil, errors.New(errors.RootNotFound,
			"no root found: graph has no node with in-degree 0")
	}
	if len(roots) > 1 {
		return nil, errors.Newf(errors.RootAmbiguous,
			"multiple roots found: %v", roots).WithDetails(roots)
	}
	return roots[0], nil
}

// Validate checks the arborescence invariant: exactly one root, every
// other node with in-degree exactly 1, and all nodes reachable from the
// root. Violations are fatal and never repaired.
func (g *Graph) Validate() error {
	root, err := g.FindRoot()
	if err != nil {
		return err
	}
	for _, n := range g.Nodes {
		deg := g.inDegree[idKey(n.ID)]
		if idKey(n.ID) != idKey(root) && deg != 1 {
			return errors.Newf(errors.NotArborescence,
				"node %v has in-degree %d, expected 1", n.ID, deg)
		}
	}

	// In-degrees alone admit disjoint cycles; every node must also be
	// reachable from the root.
	visited := make(map[string]bool, len(g.Nodes))
	stack := []interface{}{root}
	visited[idKey(root)] = true
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.outEdges[idKey(node)] {
			key := idKey(e.Target)
			if !visited[key] {
				visited[key] = true
				stack = append(stack, e.Target)
			}
		}
	}
	if len(visited) != len(g.Nodes) {
		return errors.Newf(errors.NotArborescence,
			"graph is disconnected: %d of %d nodes reachable from root %v",
			len(visited), len(g.Nodes), root)
	}
	return nil
}
