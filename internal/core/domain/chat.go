package domain

import "strings"

// ContextCharBudget caps the concatenated retrieval context passed to the
// generation model, to respect its context window.
const ContextCharBudget = 50000

// DefaultLexicalWeight is the lexical blend applied when the parameter
// decision step returns nothing usable.
const DefaultLexicalWeight = 0.3

// RetrievalParams are the search parameters chosen by the parameter
// decision step of answer orchestration.
type RetrievalParams struct {
	// Query is the cleaned query text to retrieve with.
	Query string

	// Limit is the result count K.
	Limit int

	// GroupID optionally restricts retrieval to one group.
	GroupID *string

	// LexicalWeight is the rerank blend in [0,1].
	LexicalWeight float64
}

// Normalised validates decided parameters against the same constraints as
// a direct search and falls back to defaults rather than failing: an LLM
// that returns garbage must not break the whole request.
func (p RetrievalParams) Normalised(question string) RetrievalParams {
	out := p
	if strings.TrimSpace(out.Query) == "" {
		out.Query = question
	}
	if out.Limit < MinResultCount || out.Limit > MaxResultCount {
		out.Limit = DefaultResultCount
	}
	if out.LexicalWeight < 0 || out.LexicalWeight > 1 {
		out.LexicalWeight = DefaultLexicalWeight
	}
	return out
}

// Answer is the result of answer orchestration: generated text plus the
// retrieval hits it was grounded on.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieval results passed to the generation model.
	Sources []SearchResult
}
