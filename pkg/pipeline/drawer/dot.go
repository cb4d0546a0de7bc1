package drawer

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

// XLabel is the vertex attribute rendered as a second, smaller line of the vertex label.
const XLabel = "xlabel"

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
{{- range $k, $v := .Attributes}}
	{{$k}}="{{quote $v}}";
{{- end}}
{{- range $s := .Statements}}
	"{{quote .Source}}" {{if .Target}}{{$.EdgeOperator}} "{{quote .Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{quote $v}}", {{end}}weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}}{{range $k, $v := .SourceAttributes}}{{$k}}="{{quote $v}}", {{end}}weight={{.SourceWeight}} ]{{end}};
{{- end}}
}
`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement

	rank map[string]int
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

// GraphAttribute sets a graph level attribute.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

// Rank orders the vertices, by their printed hash, in the output. Vertices missing from ids come last,
// sorted by name.
func Rank(ids []string) func(*description) {
	return func(d *description) {
		for idx, id := range ids {
			d.rank[id] = idx
		}
	}
}

// DOT writes g in the Graphviz DOT language.
func DOT[K comparable, T any](g graph.Graph[K, T], wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, options...)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

func (d *description) less(a, b string) bool {
	ra, okA := d.rank[a]
	rb, okB := d.rank[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

func generateDOT[K comparable, T any](gra graph.Graph[K, T], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
		rank:         make(map[string]int),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	names := make(map[string]K, len(adjacencyMap))
	vertices := make([]string, 0, len(adjacencyMap))
	for vertex := range adjacencyMap {
		name := fmt.Sprint(vertex)
		names[name] = vertex
		vertices = append(vertices, name)
	}
	sort.Slice(vertices, func(i, j int) bool { return desc.less(vertices[i], vertices[j]) })

	for _, name := range vertices {
		vertex := names[name]
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(sourceProperties.Attributes))
		for k, v := range sourceProperties.Attributes {
			attributes[k] = v
		}

		htmlAttributes := make(map[string]string)
		if xlabel, ok := attributes[XLabel]; ok {
			label := name
			if l, ok := attributes["label"]; ok {
				label = l
				delete(attributes, "label")
			}
			htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`,
				html.EscapeString(label), html.EscapeString(xlabel))
			delete(attributes, XLabel)
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           name,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		targets := make([]string, 0, len(adjacencyMap[vertex]))
		edges := make(map[string]graph.Edge[K], len(adjacencyMap[vertex]))
		for adjacency, edge := range adjacencyMap[vertex] {
			target := fmt.Sprint(adjacency)
			targets = append(targets, target)
			edges[target] = edge
		}
		sort.Slice(targets, func(i, j int) bool { return desc.less(targets[i], targets[j]) })

		for _, target := range targets {
			edge := edges[target]
			desc.Statements = append(desc.Statements, statement{
				Source:         name,
				Target:         target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Funcs(template.FuncMap{"quote": quote}).Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote escapes s for a double quoted DOT string.
func quote(s string) string {
	return quoteReplacer.Replace(s)
}

// WriteFile atomically replaces the file name with data.
func WriteFile(name string, data []byte) error {
	err := renameio.WriteFile(name, data, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", name)
	}

	return nil
}
