/*
Package catena is a minimal sequential execution engine for agent pipelines.

An Agent owns a chain of nodes and one shared Context. Running the agent hands
the Context to each node in turn, appends every returned result to the
Context's result log and follows the node's successor link, which is read
after the node returns. Nodes can therefore rewrite the chain while it runs:
routing nodes (package routing) splice a branch between themselves and their
continuation instead of returning a decision.

# Failures and limits

A node failure never aborts Run. It is recorded in Context.Error and control
moves to the node's own error handler, then to the agent's global handler; with
neither, the run ends. MaxNodes and MaxDuration are soft limits checked between
nodes: a breach records a LimitExceededError and ends the run with whatever
results were produced. Run itself only fails when the chain cannot run at all
(ConfigurationError) or when another run of the same agent is in progress.

# Usage

	agent := catena.New(domain.Context{
		Instructions: domain.Instructions{System: "convert files to text"},
	}, catena.WithMaxNodes(50))

	load := agent.Add(nodes.Request("loadFile"))
	load.Add(nodes.Log("log"))
	agent.Error(nodes.ErrorReporter("errorReporter"))

	rc, err := agent.Run(ctx, &domain.Context{User: &domain.User{Request: "data.csv"}})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rc.LastNodeResult.Value)

Results accumulate across runs of the same agent; call Context().ResetResults
between runs for a fresh log.
*/
package catena
