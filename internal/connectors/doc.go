// Package connectors provides the shared HTTP machinery for the
// upstream parliamentary APIs: a rate-limited, retrying JSON client and
// the error types connectors surface. Source-specific connectors live
// in subpackages.
package connectors
