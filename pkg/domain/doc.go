/*
Package domain contains the core data model of the Catena engine.

It defines the run-scoped Context shared by every node of a chain, the results
and telemetry events recorded while a chain executes, the agent configuration
and the error kinds the runtime distinguishes. This package is kept pure and
free of I/O, following the same Hexagonal Architecture principles as the rest
of the engine.

# Key Entities

  - Context: the shared mutable record threaded through one run.
  - Result: the {nodeId, value} pair a node may return.
  - Event: an optional audit record of a node's outcome (ok/error).
  - Config: the agent's safety limits (max nodes, max duration) and mode.
  - LifecycleHooks: callbacks for observability (logging, metrics).
*/
package domain
