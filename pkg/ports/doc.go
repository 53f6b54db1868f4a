/*
Package ports defines the driven ports (interfaces) of the Catena runtime.

These interfaces decouple agents and catalogue nodes from concrete backends,
so the same chain can run against in-process or Redis-backed implementations.

# Key Interfaces

  - NoteStore: durable long-term memory behind domain.Memory.LongTerm.
  - DistributedLocker: guards runs that share a context across processes.
*/
package ports
