// Package drawer renders a plan as a Graphviz graph.
package drawer

import (
	"bytes"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-ciplan/internal/store"
	"github.com/askiada/go-ciplan/pkg/ci/plan"
	pipelinedrawer "github.com/askiada/go-ciplan/pkg/pipeline/drawer"
)

const (
	maxRGB    = 240
	skipColor = "#d3d3d3"
)

var statusColors = map[string]string{
	string(plan.StatusFailed):   "#d9534f",
	string(plan.StatusErrored):  "#f0ad4e",
	string(plan.StatusCanceled): "#777777",
}

// StageColors gives every stage a fill color, from blue for the first stage to red for the last.
func StageColors(stages []string) (map[string]string, error) {
	res := make(map[string]string, len(stages))
	for idx, stage := range stages {
		fraction := 0.0
		if len(stages) > 1 {
			fraction = float64(idx) / float64(len(stages)-1)
		}
		red := maxRGB * fraction
		blue := maxRGB - red

		// pastel
		color, err := colors.RGB(uint8(127+red/2), 127, uint8(127+blue/2)) //nolint
		if err != nil {
			return nil, errors.Wrap(err, "unable to get colour")
		}
		res[stage] = color.ToHEX().String()
	}

	return res, nil
}

// Draw writes the plan graph in the DOT language. Jobs are filled with the color of their stage, skipped
// jobs are grey and workspace handoffs are dashed edges labelled with the workspace name. Once the plan
// is evaluated, the job status is shown under its name.
func Draw(p *plan.Plan, w io.Writer) error {
	stages := make([]string, len(p.Stages))
	for idx, stage := range p.Stages {
		stages[idx] = stage.Name
	}
	palette, err := StageColors(stages)
	if err != nil {
		return err
	}

	vertices, err := p.Vertices()
	if err != nil {
		return err
	}
	edges, err := p.Edges()
	if err != nil {
		return err
	}

	g := graph.NewWithStore[string, string](graph.StringHash, store.NewMemoryStore[string, string](), graph.Directed())
	ids := make([]string, 0, len(vertices))
	for _, v := range vertices {
		attrs, err := p.Attributes(v.ID)
		if err != nil {
			return err
		}

		err = g.AddVertex(v.ID, graph.VertexAttributes(vertexAttributes(v, attrs, palette)))
		if err != nil {
			return errors.Wrapf(err, "unable to add vertex %s", v.ID)
		}
		ids = append(ids, v.ID)
	}

	for _, edge := range edges {
		var opts []func(*graph.EdgeProperties)
		if edge.Properties.Attributes[plan.AttributeKind] == plan.KindWorkspace {
			opts = append(opts,
				graph.EdgeAttribute("style", "dashed"),
				graph.EdgeAttribute("label", edge.Properties.Attributes[plan.AttributeWorkspace]),
			)
		}
		err = g.AddEdge(edge.Source, edge.Target, opts...)
		if err != nil {
			return errors.Wrapf(err, "unable to add edge from %s to %s", edge.Source, edge.Target)
		}
	}

	err = pipelinedrawer.DOT(g, w, pipelinedrawer.Rank(ids), pipelinedrawer.GraphAttribute("rankdir", "LR"))
	if err != nil {
		return errors.Wrap(err, "unable to draw plan")
	}

	return nil
}

func vertexAttributes(v plan.Vertex, attrs map[string]string, palette map[string]string) map[string]string {
	res := map[string]string{"label": v.Label()}

	if v.Kind == plan.StageVertex {
		res["shape"] = "box"
		res["style"] = "rounded"

		return res
	}

	res["style"] = "filled"
	res["fillcolor"] = palette[v.Stage]
	if !v.Entry.Run {
		res["fillcolor"] = skipColor
		res["fontcolor"] = "#555555"
		res["tooltip"] = v.Entry.Reason
	}

	if status, ok := attrs[plan.AttributeStatus]; ok {
		res[pipelinedrawer.XLabel] = status
		if color, ok := statusColors[status]; ok {
			res["color"] = color
			res["penwidth"] = "2"
		}
	}

	return res
}

// WriteFile draws the plan into the file name.
func WriteFile(p *plan.Plan, name string) error {
	var buf bytes.Buffer
	err := Draw(p, &buf)
	if err != nil {
		return err
	}

	return pipelinedrawer.WriteFile(name, buf.Bytes())
}
