// Package scoring composes feature extraction, classification, verdict
// mapping and explanation into a single call.
//
// Scorer.Score is the entry point used by the CLI and the HTTP server.
// It fails with one of three typed errors and never turns a failure into a
// benign verdict:
//
//   - features.MalformedURLError when the URL cannot be decomposed
//   - classifier.ErrModelUnavailable when no model is loaded
//   - SchemaMismatchError when the vector does not match the model's schema
package scoring
