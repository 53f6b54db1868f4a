package chain

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
)

// Handle addresses a node record inside a Graph. The zero Handle is "no node".
type Handle uint32

// IsZero reports whether h addresses nothing.
func (h Handle) IsZero() bool { return h == 0 }

type record struct {
	node         Node
	next         Handle
	errorHandler Handle
	config       map[string]any
}

// Graph is the arena holding every node of a composed chain.
type Graph struct {
	// records[0] is a sentinel so that the zero Handle stays invalid.
	records []record
	index   map[Node]Handle
	errs    []error
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		records: make([]record, 1),
		index:   make(map[Node]Handle),
	}
}

// Register stores node in the arena without linking it and returns its Link.
// Registering the same pointer twice returns the existing record, so a
// handler shared by several nodes keeps a single set of links. Nodes passed
// by value have no identity: each registration creates a new record.
func (g *Graph) Register(node Node) Link {
	if node == nil {
		g.errs = append(g.errs, errors.New("cannot register a nil node"))
		return Link{}
	}

	keyed := reflect.TypeOf(node).Kind() == reflect.Pointer
	if keyed {
		if h, ok := g.index[node]; ok {
			return Link{g: g, h: h}
		}
	}

	h := Handle(len(g.records))
	g.records = append(g.records, record{node: node})
	if keyed {
		g.index[node] = h
	}

	link := Link{g: g, h: h}
	if a, ok := node.(Attacher); ok {
		a.Attach(link)
	}
	return link
}

// Link returns the Link for h. The result is zero if h is not in the graph.
func (g *Graph) Link(h Handle) Link {
	if h.IsZero() || int(h) >= len(g.records) {
		return Link{}
	}
	return Link{g: g, h: h}
}

// Lookup returns the first registered node with the given id.
func (g *Graph) Lookup(id string) (Link, bool) {
	for i := 1; i < len(g.records); i++ {
		if g.records[i].node.ID() == id {
			return Link{g: g, h: Handle(i)}, true
		}
	}
	return Link{}, false
}

// Nodes returns every registered node, in registration order.
func (g *Graph) Nodes() []Link {
	links := make([]Link, 0, len(g.records)-1)
	for i := 1; i < len(g.records); i++ {
		links = append(links, Link{g: g, h: Handle(i)})
	}
	return links
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.records) - 1
}

// Err returns the composition errors collected so far (invalid settings, nil nodes).
func (g *Graph) Err() error {
	return errors.Join(g.errs...)
}

func (g *Graph) record(h Handle) *record {
	if g == nil || h.IsZero() || int(h) >= len(g.records) {
		return nil
	}
	return &g.records[h]
}

func (g *Graph) configure(h Handle, settings map[string]any) {
	rec := g.record(h)
	if rec == nil {
		return
	}
	if rec.config == nil {
		rec.config = make(map[string]any, len(settings))
	}
	maps.Copy(rec.config, settings)

	if c, ok := rec.node.(Configurable); ok {
		if err := c.Configure(maps.Clone(rec.config)); err != nil {
			g.errs = append(g.errs, fmt.Errorf("node '%s': %w", rec.node.ID(), err))
		}
	}
}
