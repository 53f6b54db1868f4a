// Package tools provides the standard capability handles nodes reach through
// domain.Tools: an HTTP client and a structured logger. Language model
// adapters live in the llm subpackage.
package tools
