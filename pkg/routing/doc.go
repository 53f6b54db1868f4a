/*
Package routing provides the splice node: conditional branching inside an
otherwise linear chain.

A routing node does not return a branch choice for the runtime to interpret.
Instead it rewrites the chain in place: it points its own successor at the
chosen branch head and links the branch tail back to the continuation that
followed it. The runtime reads the successor after the node returns, so the
branch executes next.

	router := routing.New("router",
		routing.Branch("csv", g.Register(csvToText)),
		routing.Branch("pdf", pdfHead),
	)
	load.Add(router).Add(logNode)

Branches must be finite and acyclic. Nothing detects a malformed branch; the
agent's max-nodes limit is the only backstop.
*/
package routing
