// Package driving provides interfaces for inbound adapters
// (primary ports): the CLI and the MCP tool layer call the core
// through these.
package driving
