// Package vectorizer generates fixed-dimension text embeddings and the
// cosine similarity math used for near-duplicate content detection.
//
// The Provider interface abstracts the embedding backend; the OpenAI
// implementation is the production one. Similarity consumers should treat
// provider failures as "no matches" — deduplication is a quality safeguard,
// not a correctness requirement.
package vectorizer
