// Package normalisers maps raw upstream records into canonical
// documents. Normalisation is pure and tolerant: unknown fields are
// ignored, optional fields may be absent, and a record that cannot be
// normalised becomes a SkippedRecord with a stated reason rather than an
// error. Source-specific normalisers live in subpackages; this package
// holds the lenient field types they share.
package normalisers
