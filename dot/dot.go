// Package dot exports rack topology to Graphviz.
package dot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/dudk/rack/graph"
	"github.com/dudk/rack/module"
)

// Topology is implemented by rack.
type Topology interface {
	Panels() [][]graph.Handle
	Description(graph.Handle) (*module.Description, bool)
	Module(graph.Handle) (module.Module, bool)
	Edges() []graph.Edge
}

// ToDOT converts topology to DOT format. Instances are nodes labeled with
// module name and status, connections are edges labeled with port names.
// Panels become clusters when there is more than one.
func ToDOT(t Topology) string {
	var buf bytes.Buffer
	buf.WriteString("digraph rack {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	panels := t.Panels()
	for i, handles := range panels {
		indent := "  "
		if len(panels) > 1 {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("panel %d", i))
			indent = "    "
		}
		for _, h := range handles {
			writeNode(&buf, t, h, indent)
		}
		if len(panels) > 1 {
			buf.WriteString("  }\n")
		}
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		label := e.From.ID.Role + " → " + e.To.ID.Role
		if e.From.ID.Type != e.To.ID.Type {
			label += fmt.Sprintf("\n%s → %s", e.From.ID.Type, e.To.ID.Type)
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From.Instance.String(), e.To.Instance.String(), label)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, t Topology, h graph.Handle, indent string) {
	desc, ok := t.Description(h)
	if !ok {
		return
	}
	label := desc.Name + "\n" + h.Short()
	attrs := ""
	if m, ok := t.Module(h); ok {
		if d, ok := m.(module.Describer); ok {
			label += "\n" + d.Describe()
		}
		if _, ok := m.(module.Sink); ok {
			attrs = ", fillcolor=lightgrey"
		}
	}
	fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, h.String(), label, attrs)
}

// RenderSVG renders DOT graph to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
