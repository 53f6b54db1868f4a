/*
Package chain implements the node contract and the mutable chain that nodes form.

Nodes are stored in an arena (Graph) and addressed by stable Handles. The
"next" and "error handler" pointers of a node are handle fields of its record,
so they can be rewritten at any moment, including by a node while it runs.
This is what lets a routing node splice a branch into an otherwise linear
chain without the aliasing hazards of shared mutable references.

Composition is fluent, through Link values:

	g := chain.New()
	load := g.Register(loadFile)
	load.Add(router).Add(logNode)
	load.Try(reporter)

A Graph is not safe for concurrent use. A run owns the graph for its duration.
*/
package chain
