package tree

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"graphscore/internal/errors"
)

// DefaultEdgesKey is the node-link key holding the edge list.
const DefaultEdgesKey = "links"

// LoadOptions configures node-link JSON deserialization.
type LoadOptions struct {
	// EdgesKey is the JSON key holding the edge list (default "links";
	// some exporters use "edges").
	EdgesKey string

	// SkipValidation loads the graph without enforcing the arborescence
	// invariant. The scoring pipeline never sets this; it exists for
	// inspection tooling.
	SkipValidation bool
}

// Load reads a node-link JSON graph from path and validates that it is a
// single-rooted arborescence. Files ending in .gz are decompressed
// transparently.
func Load(path string, opts LoadOptions) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.GraphFileNotFound, "graph file "+path, err)
		}
		return nil, errors.Wrap(errors.GraphFileInvalid, "opening "+path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(errors.GraphFileInvalid, "decompressing "+path, err)
		}
		defer gz.Close()
		r = gz
	}

	g, err := Decode(r, opts)
	if err != nil {
		return nil, errors.Wrap(errors.CodeOf(err), "loading "+path, err)
	}
	return g, nil
}

// Decode parses node-link JSON from r. Numbers are decoded with
// json.Number so integer attributes survive a round-trip bit-exact.
func Decode(r io.Reader, opts LoadOptions) (*Graph, error) {
	if opts.EdgesKey == "" {
		opts.EdgesKey = DefaultEdgesKey
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.GraphFileInvalid, "parsing node-link JSON", err)
	}

	g := NewGraph()
	for k, v := range doc {
		if k == "nodes" || k == opts.EdgesKey {
			continue
		}
		g.Meta[k] = v
	}

	nodes, _ := doc["nodes"].([]interface{})
	for _, item := range nodes {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.GraphFileInvalid, "node entry is not an object")
		}
		id, ok := m["id"]
		if !ok {
			return nil, errors.New(errors.GraphFileInvalid, "node entry has no id")
		}
		n := g.AddNode(id)
		for k, v := range m {
			if k != "id" {
				n.Attrs[k] = v
			}
		}
	}

	links, _ := doc[opts.EdgesKey].([]interface{})
	for _, item := range links {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.GraphFileInvalid, "edge entry is not an object")
		}
		source, ok := m["source"]
		if !ok {
			return nil, errors.New(errors.GraphFileInvalid, "edge entry has no source")
		}
		target, ok := m["target"]
		if !ok {
			return nil, errors.New(errors.GraphFileInvalid, "edge entry has no target")
		}
		attrs := make(map[string]interface{}, len(m)-2)
		for k, v := range m {
			if k != "source" && k != "target" {
				attrs[k] = v
			}
		}
		g.AddEdge(source, target, attrs)
	}

	if !opts.SkipValidation {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Save writes the graph as node-link JSON to path, gzip-compressed when
// the path ends in .gz. Structure and attributes round-trip exactly.
func Save(g *Graph, path string, edgesKey string) error {
	data, err := Encode(g, edgesKey)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.InternalError, "creating "+path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.InternalError, "writing "+path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrap(errors.InternalError, "writing "+path, err)
		}
	}
	return nil
}

// Encode serializes the graph to node-link JSON bytes.
func Encode(g *Graph, edgesKey string) ([]byte, error) {
	if edgesKey == "" {
		edgesKey = DefaultEdgesKey
	}

	doc := make(map[string]interface{}, len(g.Meta)+2)
	doc["directed"] = true
	doc["multigraph"] = false
	doc["graph"] = map[string]interface{}{}
	for k, v := range g.Meta {
		doc[k] = v
	}

	nodes := make([]map[string]interface{}, len(g.Nodes))
	for i, n := range g.Nodes {
		entry := make(map[string]interface{}, len(n.Attrs)+1)
		for k, v := range n.Attrs {
			entry[k] = v
		}
		entry["id"] = n.ID
		nodes[i] = entry
	}
	doc["nodes"] = nodes

	links := make([]map[string]interface{}, len(g.Edges))
	for i, e := range g.Edges {
		entry := make(map[string]interface{}, len(e.Attrs)+2)
		for k, v := range e.Attrs {
			entry[k] = v
		}
		entry["source"] = e.Source
		entry["target"] = e.Target
		links[i] = entry
	}
	doc[edgesKey] = links

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(errors.InternalError, "encoding node-link JSON", err)
	}
	return buf.Bytes(), nil
}
