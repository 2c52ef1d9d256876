// Package similarity detects near-duplicate content before it is published.
//
// Texts are embedded through a vectorizer.Provider and compared by cosine
// similarity against recent embeddings of the same tenant. Two thresholds
// exist on purpose: a looser pre-filter applied before generation (to skip
// material that already saturated recent posts) and the stricter final gate
// applied to generated variations.
//
// Deduplication is a quality safeguard, not a correctness requirement: when
// the embedding provider or the store fails, Check logs the error and
// reports no matches so the pipeline keeps moving.
package similarity
