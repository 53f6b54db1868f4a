// Package nodes is the catalogue of ready-made chain nodes: input loading,
// file, CSV and PDF conversion, chunking, logging, model prompts, HTTP fetches,
// long-term memory and compositional retries.
//
// Every node reads prior outputs only through the Context result log, so
// nodes can be reordered freely. Settings are applied through
// chain.Link.Options and decoded with chain.DecodeSettings.
package nodes
