package plan

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-ciplan/internal/store"
	"github.com/askiada/go-ciplan/pkg/ci/model"
)

// ErrWorkspaceOrder is returned when a job uses a workspace created by a job which runs after it.
var ErrWorkspaceOrder = errors.New("workspace is used before it is created")

// VertexKind tells jobs from stage barriers.
type VertexKind string

const (
	JobVertex   VertexKind = "job"
	StageVertex VertexKind = "stage"
)

// Vertex is a node of the plan graph. A stage vertex is the barrier every job of the stage must reach
// before the next stage starts.
type Vertex struct {
	ID    string
	Kind  VertexKind
	Stage string
	Entry *Entry
}

// Label is the text shown for the vertex.
func (v Vertex) Label() string {
	if v.Kind == StageVertex {
		return v.Stage
	}

	return v.Entry.Job.Title()
}

// Edge attributes of workspace edges.
const (
	AttributeKind      = "kind"
	AttributeWorkspace = "workspace"
	KindWorkspace      = "workspace"
	KindStage          = "stage"
)

func stageID(name string) string {
	return "stage-" + name
}

func (p *Plan) addVertex(v Vertex) error {
	err := p.graph.AddVertex(v)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", v.ID)
	}
	p.index[v.ID] = len(p.index)

	return nil
}

func (p *Plan) buildGraph() error {
	p.store = store.NewMemoryStore[string, Vertex]()
	p.graph = graph.NewWithStore[string, Vertex](func(v Vertex) string { return v.ID }, p.store, graph.Directed(), graph.PreventCycles())
	p.index = map[string]int{}

	creators := map[string]*model.Job{}
	previous := ""
	for _, stage := range p.Stages {
		for _, entry := range stage.Entries {
			err := p.addVertex(Vertex{ID: entry.Job.ID(), Kind: JobVertex, Stage: stage.Name, Entry: entry})
			if err != nil {
				return err
			}
			if previous != "" {
				err = p.graph.AddEdge(previous, entry.Job.ID(), graph.EdgeAttribute(AttributeKind, KindStage))
				if err != nil {
					return errors.Wrapf(err, "unable to link stage %s", stage.Name)
				}
			}
			if create := entry.Job.Workspaces.Create; create != nil && create.Name != "" {
				if _, ok := creators[create.Name]; !ok {
					creators[create.Name] = entry.Job
				}
			}
		}

		barrier := stageID(stage.Name)
		err := p.addVertex(Vertex{ID: barrier, Kind: StageVertex, Stage: stage.Name})
		if err != nil {
			return err
		}
		for _, entry := range stage.Entries {
			err = p.graph.AddEdge(entry.Job.ID(), barrier, graph.EdgeAttribute(AttributeKind, KindStage))
			if err != nil {
				return errors.Wrapf(err, "unable to link stage %s", stage.Name)
			}
		}
		previous = barrier
	}

	for _, entry := range p.Entries() {
		for _, name := range entry.Job.Workspaces.Use {
			creator, ok := creators[name]
			if !ok || creator == entry.Job {
				continue
			}
			err := p.graph.AddEdge(creator.ID(), entry.Job.ID(),
				graph.EdgeAttribute(AttributeKind, KindWorkspace),
				graph.EdgeAttribute(AttributeWorkspace, name),
			)
			switch {
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return errors.Wrapf(ErrWorkspaceOrder, "%s uses workspace %q created by %s", entry.Job.Title(), name, creator.Title())
			case errors.Is(err, graph.ErrEdgeAlreadyExists):
				continue
			case err != nil:
				return errors.Wrapf(err, "unable to link workspace %s", name)
			}
		}
	}

	return nil
}

// Order returns the vertex ids in a topological order, ties broken by insertion order.
func (p *Plan) Order() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool {
		return p.index[a] < p.index[b]
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort plan")
	}

	return order, nil
}

// Vertices returns the vertices in insertion order.
func (p *Plan) Vertices() ([]Vertex, error) {
	hashes, err := p.store.ListVertices()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list vertices")
	}

	res := make([]Vertex, 0, len(hashes))
	for _, hash := range hashes {
		v, err := p.graph.Vertex(hash)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to get vertex %s", hash)
		}
		res = append(res, v)
	}

	return res, nil
}

// Edges returns the edges in insertion order.
func (p *Plan) Edges() ([]graph.Edge[string], error) {
	edges, err := p.store.ListEdges()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list edges")
	}

	return edges, nil
}

// Mark sets an attribute on a vertex, such as the status of a job once evaluated.
func (p *Plan) Mark(id, key, value string) error {
	return p.store.UpdateVertex(id, func(props *graph.VertexProperties) {
		if props.Attributes == nil {
			props.Attributes = map[string]string{}
		}
		props.Attributes[key] = value
	})
}

// Attributes returns the attributes of a vertex.
func (p *Plan) Attributes(id string) (map[string]string, error) {
	_, props, err := p.graph.VertexWithProperties(id)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get vertex %s", id)
	}

	return props.Attributes, nil
}
