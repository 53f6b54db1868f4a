package chain

import "maps"

// Link is a reference to a node record inside a Graph.
// It is the fluent composition surface of the chain: a.Add(b).Add(c).
// The zero Link refers to no node.
type Link struct {
	g *Graph
	h Handle
}

// IsZero reports whether l refers to no node.
func (l Link) IsZero() bool {
	return l.g == nil || l.h.IsZero()
}

// Handle returns the stable handle of the node.
func (l Link) Handle() Handle { return l.h }

// Graph returns the arena the link belongs to.
func (l Link) Graph() *Graph { return l.g }

// Node returns the node implementation, or nil for the zero Link.
func (l Link) Node() Node {
	if rec := l.g.record(l.h); rec != nil {
		return rec.node
	}
	return nil
}

// ID returns the node identifier, or "" for the zero Link.
func (l Link) ID() string {
	if n := l.Node(); n != nil {
		return n.ID()
	}
	return ""
}

// Config returns a copy of the node's merged settings.
func (l Link) Config() map[string]any {
	if rec := l.g.record(l.h); rec != nil {
		return maps.Clone(rec.config)
	}
	return nil
}

// Next returns the node that follows l, or the zero Link.
func (l Link) Next() Link {
	if rec := l.g.record(l.h); rec != nil {
		return l.g.Link(rec.next)
	}
	return Link{}
}

// ErrorHandler returns the node that takes over when l fails, or the zero Link.
func (l Link) ErrorHandler() Link {
	if rec := l.g.record(l.h); rec != nil {
		return l.g.Link(rec.errorHandler)
	}
	return Link{}
}

// SetNext points l at next. A zero next ends the chain after l.
// next must belong to the same graph.
func (l Link) SetNext(next Link) {
	if rec := l.g.record(l.h); rec != nil {
		rec.next = l.sameGraph(next)
	}
}

// SetErrorHandler points l's failure path at handler.
func (l Link) SetErrorHandler(handler Link) {
	if rec := l.g.record(l.h); rec != nil {
		rec.errorHandler = l.sameGraph(handler)
	}
}

// Add sets node as the successor of l and returns the node's link,
// so that composition continues from it.
func (l Link) Add(node Node) Link {
	if l.g == nil {
		return Link{}
	}
	next := l.g.Register(node)
	l.SetNext(next)
	return next
}

// Error sets handler as the error handler of l and returns l,
// so that composition continues on the main path.
func (l Link) Error(handler Node) Link {
	if l.g == nil {
		return l
	}
	l.SetErrorHandler(l.g.Register(handler))
	return l
}

// Try sets node as the error handler of l and returns the node's link,
// so that composition continues on the error/retry path.
func (l Link) Try(node Node) Link {
	if l.g == nil {
		return Link{}
	}
	handler := l.g.Register(node)
	l.SetErrorHandler(handler)
	return handler
}

// Options merges settings into the node's config and returns l.
// Configurable nodes are re-configured with the merged map; decoding
// failures are collected on the graph (see Graph.Err).
func (l Link) Options(settings map[string]any) Link {
	if l.g != nil {
		l.g.configure(l.h, settings)
	}
	return l
}

// Tail follows Next from l until a node without successor and returns it.
// It does not detect cycles.
func (l Link) Tail() Link {
	cur := l
	for !cur.IsZero() {
		next := cur.Next()
		if next.IsZero() {
			return cur
		}
		cur = next
	}
	return cur
}

func (l Link) sameGraph(other Link) Handle {
	if other.IsZero() || other.g != l.g {
		return 0
	}
	return other.h
}
