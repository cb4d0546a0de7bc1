package drawer

import (
	"io"
	"sort"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-ciplan/pkg/pipeline/measure"
)

// DOTDrawer draws the steps of a pipeline as a Graphviz graph.
type DOTDrawer struct {
	graph graph.Graph[string, string]
	order []string
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer() *DOTDrawer {
	return &DOTDrawer{
		graph: graph.New(graph.StringHash, graph.Directed()),
	}
}

// AddStep adds a step to the pipeline graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}
	d.order = append(d.order, name)

	return nil
}

// AddLink adds a link between parent and child steps.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw writes the graph in the DOT language.
func (d *DOTDrawer) Draw(w io.Writer) error {
	err := DOT(d.graph, w, Rank(d.order), GraphAttribute("rankdir", "LR"))
	if err != nil {
		return errors.Wrap(err, "unable to draw steps")
	}

	return nil
}

const maxRGB = 240

// AddMeasure labels every step with its average and total computation time, and colors it from blue for
// the fastest step to red for the slowest.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()

	totals := make([]time.Duration, 0, len(metrics))
	for _, metric := range metrics {
		totals = append(totals, metric.TotalDuration())
	}
	if len(totals) == 0 {
		return nil
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i] < totals[j] })
	minValue, maxValue := totals[0], totals[len(totals)-1]

	for name, metric := range metrics {
		_, properties, err := d.graph.VertexWithProperties(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex properties of %s", name)
		}

		if metric.Count() == 0 {
			continue
		}
		properties.Attributes[XLabel] = "avg: " + metric.AVGDuration().String() + ", total: " + metric.TotalDuration().String()

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(metric.TotalDuration()-minValue) / float64(maxValue-minValue)
		}
		red := maxRGB * fraction
		blue := maxRGB - red

		color, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}
		properties.Attributes["color"] = color.ToHEX().String()
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
