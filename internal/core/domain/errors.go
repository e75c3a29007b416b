package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidQuery indicates a search query that is empty after
	// normalisation. Surfaced directly to the caller, never retried.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidParameter indicates a caller-supplied parameter outside its
	// allowed range (result count, lexical weight, route).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrVectorizationFailed indicates an embedding model failed to produce
	// a vector for a piece of content. The caller decides whether to skip
	// the chunk or fail the whole document.
	ErrVectorizationFailed = errors.New("vectorization failed")

	// ErrIndexWriteFailed indicates a vector index upsert failed after
	// retries were exhausted.
	ErrIndexWriteFailed = errors.New("index write failed")

	// ErrRegistryInconsistency indicates the relational store and a vector
	// index disagree after a write. Always logged for reconciliation,
	// never silently dropped.
	ErrRegistryInconsistency = errors.New("registry inconsistency")

	// ErrTaggingFailed indicates the tagging pipeline failed for an image.
	// Non-fatal: document ingestion proceeds and tag absence is the only
	// visible symptom.
	ErrTaggingFailed = errors.New("tagging failed")

	// ErrRetrievalTimeout indicates an external retrieval or generation call
	// exceeded its budget. No partial results are returned.
	ErrRetrievalTimeout = errors.New("retrieval timeout")

	// ErrEmbeddingUnavailable indicates an embedding service is not
	// configured for the requested modality.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index for a route is
	// not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the language generation service is not
	// configured. Answer orchestration is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
