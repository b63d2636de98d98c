// Package viz renders an annotated arterial tree as a standalone HTML
// page backed by vis-network, with edges colored by obstruction degree.
package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"graphscore/internal/errors"
	"graphscore/internal/tree"
)

// Options configures one rendering.
type Options struct {
	// ObstructionAttr selects the edge attribute driving the color
	// ramp. Defaults to the maximum obstruction attribute.
	ObstructionAttr string

	// Title is the page title. Defaults to "Arterial tree".
	Title string

	// Labels overrides edge labels, keyed by edge. Edges without an
	// override are labeled with their obstruction degree.
	Labels map[*tree.Edge]string
}

type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Level int    `json:"level"`
}

type visEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Color string `json:"color"`
	Width int    `json:"width"`
}

type pageData struct {
	Title string
	Nodes []visNode
	Edges []visEdge
}

// Render produces a self-contained HTML page for the tree.
func Render(g *tree.Graph, opts Options) (string, error) {
	if opts.ObstructionAttr == "" {
		opts.ObstructionAttr = tree.DefaultMaxAttr
	}
	if opts.Title == "" {
		opts.Title = "Arterial tree"
	}

	root, err := g.FindRoot()
	if err != nil {
		return "", err
	}
	depths := nodeDepths(g, root)

	data := pageData{Title: opts.Title}
	for _, n := range g.Nodes {
		id := fmt.Sprintf("%v", n.ID)
		data.Nodes = append(data.Nodes, visNode{
			ID:    id,
			Label: id,
			Level: depths[id],
		})
	}
	for _, e := range g.Edges {
		degree, _ := e.Float(opts.ObstructionAttr)
		label, ok := opts.Labels[e]
		if !ok {
			label = fmt.Sprintf("%.2f", degree)
		}
		data.Edges = append(data.Edges, visEdge{
			From:  fmt.Sprintf("%v", e.Source),
			To:    fmt.Sprintf("%v", e.Target),
			Label: label,
			Color: DegreeColor(degree),
			Width: edgeWidth(e.Level()),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(errors.InternalError, "rendering visualization", err)
	}
	return buf.String(), nil
}

// WriteFile renders the tree and writes the page to path.
func WriteFile(path string, g *tree.Graph, opts Options) error {
	html, err := Render(g, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return errors.Wrap(errors.InternalError, "writing visualization "+path, err)
	}
	return nil
}

// DegreeColor maps an obstruction degree in [0,1] to a hex color on a
// blue (clear) over magenta to red (occluded) ramp.
func DegreeColor(degree float64) string {
	if degree < 0 {
		degree = 0
	}
	if degree > 1 {
		degree = 1
	}
	// #aaaaff -> #ff00ff -> #ff0000
	if degree < 0.5 {
		t := degree * 2
		return hexColor(lerp(0xaa, 0xff, t), lerp(0xaa, 0x00, t), 0xff)
	}
	t := (degree - 0.5) * 2
	return hexColor(0xff, 0x00, lerp(0xff, 0x00, t))
}

func lerp(a, b int, t float64) int {
	return a + int(float64(b-a)*t+0.5)
}

func hexColor(r, g, b int) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// edgeWidth thins edges as the anatomical level deepens, mirroring the
// narrowing of the vessels themselves.
func edgeWidth(level int) int {
	w := 10 - 2*level
	if w < 1 {
		w = 1
	}
	return w
}

// nodeDepths maps every node ID to its depth below the root, which
// drives the hierarchical layout.
func nodeDepths(g *tree.Graph, root interface{}) map[string]int {
	depths := map[string]int{fmt.Sprintf("%v", root): 0}
	type frame struct {
		id    interface{}
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.OutEdges(f.id) {
			id := fmt.Sprintf("%v", e.Target)
			depths[id] = f.depth + 1
			stack = append(stack, frame{e.Target, f.depth + 1})
		}
	}
	return depths
}

var pageTemplate = template.Must(template.New("viz").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  <style>
    html, body { margin: 0; height: 100%; font-family: sans-serif; }
    #tree { width: 100%; height: 100%; }
  </style>
</head>
<body>
<div id="tree"></div>
<script>
  var nodes = new vis.DataSet([
  {{- range .Nodes}}
    {id: {{.ID}}, label: {{.Label}}, level: {{.Level}}},
  {{- end}}
  ]);
  var edges = new vis.DataSet([
  {{- range .Edges}}
    {from: {{.From}}, to: {{.To}}, label: {{.Label}}, color: {color: {{.Color}}}, width: {{.Width}}, arrows: "to"},
  {{- end}}
  ]);
  var container = document.getElementById("tree");
  var options = {
    layout: {hierarchical: {direction: "UD", sortMethod: "directed"}},
    edges: {font: {align: "top"}},
    physics: false
  };
  new vis.Network(container, {nodes: nodes, edges: edges}, options);
</script>
</body>
</html>
`))
