package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/routing"
)

// Overlay contains run state to highlight on the diagram.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// Options selects the special nodes of a chain.
type Options struct {
	Root     chain.Link
	Fallback chain.Link
	Overlay  *Overlay
}

// GenerateMermaid produces a Mermaid flowchart of every node registered in g.
// It applies semantic styling:
// - Root: ((Circle))
// - Routing node: {Rhombus}
// - Error handler: {{Hexagon}}
// - Default: [Rectangle]
//
// Next links are solid arrows, error handler links are dotted, and routing
// branches are labelled with their category. Nodes are keyed by handle, so
// duplicate ids still render as distinct boxes.
func GenerateMermaid(g *chain.Graph, opts Options) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	links := g.Nodes()
	handlers := make(map[chain.Handle]bool)
	for _, l := range links {
		if h := l.ErrorHandler(); !h.IsZero() {
			handlers[h.Handle()] = true
		}
	}
	if !opts.Fallback.IsZero() {
		handlers[opts.Fallback.Handle()] = true
	}

	for _, l := range links {
		opener, closer := "[", "]"
		router, isRouter := l.Node().(*routing.Node)

		switch {
		case !opts.Root.IsZero() && l.Handle() == opts.Root.Handle():
			opener, closer = "((", "))"
		case isRouter:
			opener, closer = "{", "}"
		case handlers[l.Handle()]:
			opener, closer = "{{", "}}"
		}

		label := strings.ReplaceAll(l.ID(), "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ref(l), opener, label, closer)

		if next := l.Next(); !next.IsZero() {
			fmt.Fprintf(&sb, "    %s --> %s\n", ref(l), ref(next))
		}
		if h := l.ErrorHandler(); !h.IsZero() {
			fmt.Fprintf(&sb, "    %s -. error .-> %s\n", ref(l), ref(h))
		}
		if isRouter {
			branches := router.Branches()
			categories := make([]string, 0, len(branches))
			for c := range branches {
				categories = append(categories, string(c))
			}
			slices.Sort(categories)
			for _, c := range categories {
				head := branches[routing.Category(c)]
				if head.IsZero() {
					continue
				}
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", ref(l), c, ref(head))
			}
		}
	}

	if !opts.Fallback.IsZero() {
		sb.WriteString("    %% Global error handler\n")
		fmt.Fprintf(&sb, "    class %s fallback;\n", ref(opts.Fallback))
		sb.WriteString("    classDef fallback stroke:#c62828,stroke-dasharray: 4 2;\n")
	}

	if overlay := opts.Overlay; overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool, len(overlay.VisitedNodes))
		for _, id := range overlay.VisitedNodes {
			visited[id] = true
		}
		for _, l := range links {
			if visited[l.ID()] {
				fmt.Fprintf(&sb, "    class %s visited;\n", ref(l))
			}
		}
		if overlay.CurrentNode != "" {
			for _, l := range links {
				if l.ID() == overlay.CurrentNode {
					fmt.Fprintf(&sb, "    class %s current;\n", ref(l))
				}
			}
		}
	}

	return sb.String()
}

func ref(l chain.Link) string {
	return fmt.Sprintf("n%d", l.Handle())
}

// OverlayFrom derives the overlay of a finished or running Context.
// Telemetry events are preferred; without them, result producers are marked.
func OverlayFrom(rc *domain.Context) *Overlay {
	o := &Overlay{}
	if rc.Telemetry.Enabled() {
		for _, e := range rc.Telemetry.Events {
			o.VisitedNodes = append(o.VisitedNodes, e.NodeID)
		}
	} else {
		for _, r := range rc.NodeResults {
			o.VisitedNodes = append(o.VisitedNodes, r.NodeID)
		}
	}
	if rc.Workflow != nil {
		o.CurrentNode = rc.Workflow.CurrentNodeID
	}
	return o
}
