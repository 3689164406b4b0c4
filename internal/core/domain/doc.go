// Package domain contains the core business entities and rules for
// parlsearch: canonical parliamentary document types, ingestion run
// bookkeeping, search requests and query plans, and date-range
// resolution. It has no dependencies on adapters or infrastructure.
package domain
