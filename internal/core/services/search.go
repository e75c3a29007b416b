package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/core/ports/driving"
	"github.com/mural-labs/mural/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// overfetchFactor is how many candidates the vector search returns per
// requested result, leaving room for reranking to change the order.
const overfetchFactor = 3

// scoredCandidate is an intermediate hit before hydration.
type scoredCandidate struct {
	chunkID     string
	vectorScore float64
	finalScore  float64
	content     string
	chunk       *domain.Chunk
}

// Searcher is the hybrid retrieval engine: vector similarity, optional
// lexical reranking on the text route, highlight spans, and per-route
// payload joins.
type Searcher struct {
	docStore   driven.DocumentStore
	tagStore   driven.TagStore
	registry   *Registry
	dispatcher *Dispatcher
}

// NewSearcher creates the retrieval engine.
func NewSearcher(
	docStore driven.DocumentStore,
	tagStore driven.TagStore,
	registry *Registry,
	dispatcher *Dispatcher,
) *Searcher {
	return &Searcher{
		docStore:   docStore,
		tagStore:   tagStore,
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// Search runs one retrieval query scoped to the user's namespace.
func (s *Searcher) Search(
	ctx context.Context, userID, query string, image []byte, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" && image == nil {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = domain.DefaultResultCount
	}
	logger.Debug("Query: %q route=%s limit=%d weight=%.2f", query, opts.Route, limit, opts.LexicalWeight)

	queryVec, err := s.dispatcher.EmbedQuery(ctx, opts.Route, query, image)
	if err != nil {
		return nil, err
	}

	idx, err := s.registry.Index(queryVec.IndexName)
	if err != nil {
		return nil, err
	}

	var filter map[string]string
	if opts.GroupID != nil {
		filter = map[string]string{metaGroupID: *opts.GroupID}
	}

	hits, err := idx.Query(ctx, userID, queryVec.Values, limit*overfetchFactor, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: vector search: %v", domain.ErrRetrievalTimeout, err)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits from %s", len(hits), queryVec.IndexName)

	candidates, err := s.hydrate(ctx, userID, hits)
	if err != nil {
		return nil, err
	}

	if opts.Route == domain.RouteText && opts.LexicalWeight > 0 {
		// w=0 must stay a strict no-op, so the rerank path is gated
		// entirely rather than blending with a zero weight.
		lexicalRerank(candidates, query, opts.LexicalWeight)
		logger.Debug("Lexical rerank applied with w=%.2f", opts.LexicalWeight)
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return s.buildResults(ctx, userID, candidates, query, opts.Route)
}

// SearchTags returns persisted tags matching the labels at or above the
// confidence floor.
func (s *Searcher) SearchTags(
	ctx context.Context, userID string, labels []string, minConfidence float64, limit int,
) ([]domain.Tag, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels given", domain.ErrInvalidParameter)
	}
	if minConfidence < 0 || minConfidence > 1 {
		return nil, fmt.Errorf("%w: confidence %.3f outside [0,1]", domain.ErrInvalidParameter, minConfidence)
	}
	if limit <= 0 {
		limit = domain.DefaultResultCount
	}
	return s.tagStore.SearchTags(ctx, userID, labels, minConfidence, limit)
}

// hydrate resolves vector hits to chunks, dropping hits whose chunk has
// been deleted since the vector was written.
func (s *Searcher) hydrate(ctx context.Context, userID string, hits []driven.VectorHit) ([]*scoredCandidate, error) {
	candidates := make([]*scoredCandidate, 0, len(hits))
	for _, hit := range hits {
		chunkID := hit.Metadata[metaChunkID]
		if chunkID == "" {
			continue
		}
		chunk, err := s.docStore.GetChunk(ctx, userID, chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Orphaned vector from a partially failed delete; the
				// metadata row is gone so the hit is invisible.
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", chunkID, err)
		}
		candidates = append(candidates, &scoredCandidate{
			chunkID:     chunkID,
			vectorScore: hit.Score,
			finalScore:  hit.Score,
			content:     chunk.Content,
			chunk:       chunk,
		})
	}
	return candidates, nil
}

// buildResults attaches the route-specific payload to each candidate.
func (s *Searcher) buildResults(
	ctx context.Context, userID string, candidates []*scoredCandidate, query string, route domain.SearchRoute,
) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, cand := range candidates {
		result := domain.SearchResult{
			ChunkID:    cand.chunkID,
			DocumentID: cand.chunk.DocumentID,
			Score:      cand.finalScore,
			Modality:   cand.chunk.Modality,
			Content:    cand.chunk.Content,
		}

		switch route {
		case domain.RouteText:
			result.Highlights = highlightSpans(cand.chunk.Content, query)

		case domain.RouteImage:
			result.Content = cand.chunk.Location
			tags, err := s.tagStore.ListTagsForChunk(ctx, userID, cand.chunkID)
			if err != nil {
				return nil, fmt.Errorf("list tags for %s: %w", cand.chunkID, err)
			}
			result.Tags = tags

		case domain.RouteExtractedImage:
			result.Content = cand.chunk.Location
			parent, err := s.docStore.GetDocument(ctx, userID, cand.chunk.DocumentID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get parent document %s: %w", cand.chunk.DocumentID, err)
			}
			result.Parent = &domain.ParentRef{
				DocumentID: parent.ID,
				Name:       parent.Name,
				Page:       cand.chunk.Page,
			}
		}

		results = append(results, result)
	}
	return results, nil
}

// lexicalRerank blends a term-frequency score over the candidate set into
// the vector scores and re-sorts. The lexical score is normalised by the
// best raw score among the candidates so it lands in [0,1] like the vector
// score.
func lexicalRerank(candidates []*scoredCandidate, query string, weight float64) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return
	}

	raw := make([]float64, len(candidates))
	maxRaw := 0.0
	for i, cand := range candidates {
		tokens := tokenize(cand.content)
		if len(tokens) == 0 {
			continue
		}
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		score := 0.0
		for _, term := range terms {
			score += float64(counts[term]) / float64(len(tokens))
		}
		raw[i] = score
		if score > maxRaw {
			maxRaw = score
		}
	}

	if maxRaw > 0 {
		for i, cand := range candidates {
			lexical := raw[i] / maxRaw
			cand.finalScore = (1-weight)*cand.vectorScore + weight*lexical
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].finalScore > candidates[j].finalScore
	})
}

// tokenize splits text into lowercase word tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// highlightSpans locates all case-insensitive whole-word matches of the
// query terms in the content and returns merged, non-overlapping character
// spans.
func highlightSpans(content, query string) []domain.HighlightSpan {
	terms := tokenize(query)
	if len(terms) == 0 || content == "" {
		return nil
	}

	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	lower := strings.ToLower(content)
	var spans []domain.HighlightSpan

	// Scan word by word so matches are whole words only.
	start := -1
	for i, r := range lower {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && start < 0 {
			start = i
		}
		if !isWord && start >= 0 {
			if termSet[lower[start:i]] {
				spans = append(spans, domain.HighlightSpan{Start: start, End: i})
			}
			start = -1
		}
	}
	if start >= 0 && termSet[lower[start:]] {
		spans = append(spans, domain.HighlightSpan{Start: start, End: len(lower)})
	}

	return mergeSpans(lower, spans)
}

// mergeSpans merges overlapping and adjacent spans. Two matches are
// adjacent when only non-word characters separate them, so a matched
// phrase collapses into one covering span. Input must be sorted by start,
// which the scanner guarantees.
func mergeSpans(text string, spans []domain.HighlightSpan) []domain.HighlightSpan {
	if len(spans) <= 1 {
		return spans
	}
	merged := spans[:1]
	for _, span := range spans[1:] {
		last := &merged[len(merged)-1]
		if span.Start <= last.End || !containsWordChar(text[last.End:span.Start]) {
			if span.End > last.End {
				last.End = span.End
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

// containsWordChar reports whether the text has any letter or digit.
func containsWordChar(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
