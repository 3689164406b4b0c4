// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): upstream APIs, the embedding provider,
// the search index, and the local embedding cache.
package driven
