package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Source identifies an upstream record source.
type Source string

const (
	// SourceHansard is the Hansard debate contributions API.
	SourceHansard Source = "hansard"

	// SourceQuestions is the written parliamentary questions API.
	SourceQuestions Source = "parliamentary-questions"
)

// Valid reports whether the source is a known one.
func (s Source) Valid() bool {
	return s == SourceHansard || s == SourceQuestions
}

// Document is the canonical representation of a parliamentary record
// after normalisation. Documents are immutable value objects; only the
// search index holds long-lived state.
type Document interface {
	// DocumentURI is the identity key used for idempotent upsert.
	// It is derived from source-provided fields only, so re-ingesting the
	// same upstream record always produces the same key.
	DocumentURI() string

	// EmbeddableText is the principal text field used for embedding.
	EmbeddableText() string

	// Source identifies which upstream API produced the document.
	Source() Source
}

// RawRecord is one upstream record as fetched, before normalisation.
type RawRecord struct {
	// Source identifies the producing API.
	Source Source

	// Body is the record's JSON payload. Unknown fields are tolerated
	// downstream; required fields missing become a SkippedRecord.
	Body json.RawMessage
}

// Cursor identifies a resumable position in a paginated fetch.
// Upstream APIs paginate by skip/take within a named phase (contribution
// type for Hansard, tabled/answered pass for questions).
type Cursor struct {
	// Phase is the fetch phase within a run.
	Phase string `json:"phase"`

	// Skip is the record offset within the phase.
	Skip int `json:"skip"`
}

// RawPage is one page of raw records plus the continuation cursor.
type RawPage struct {
	// Records are the raw records on this page.
	Records []RawRecord

	// Next is the cursor for the following page, nil at end of data.
	Next *Cursor

	// Total is the upstream's reported total for the current phase.
	Total int
}

// SkippedRecord reports a raw record that could not be normalised.
// Skips are surfaced in the run summary; they never abort a run.
type SkippedRecord struct {
	// Source identifies the producing API.
	Source Source

	// Reason states why the record was skipped.
	Reason string
}

// EmbeddedDocument is a normalised document with its dense vector.
type EmbeddedDocument struct {
	// Document is the underlying canonical document.
	Document Document

	// Vector is the dense embedding of the document's principal text.
	Vector []float32

	// Model identifies the embedding model and version that produced
	// the vector.
	Model string

	// ContentHash is the hash of the text that was embedded. A matching
	// stored hash means re-embedding can be skipped.
	ContentHash string
}

// ContentHash returns the hex SHA-256 of the given text. Used to detect
// unchanged documents across ingestion runs.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
