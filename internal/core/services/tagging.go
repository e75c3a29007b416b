package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/logger"
)

// Tagging defaults.
const (
	// DefaultCandidateThreshold is the minimum cosine similarity between
	// the image embedding and a label embedding for the label to become a
	// verification candidate.
	DefaultCandidateThreshold = 0.15

	// DefaultMaxCandidates caps the candidate list, bounding detector
	// invocations per image regardless of vocabulary size.
	DefaultMaxCandidates = 15

	// DefaultVerifyThreshold is the minimum detector confidence for a
	// candidate to be persisted as a tag.
	DefaultVerifyThreshold = 0.15
)

// tagJobState tracks a tagging job through the pipeline. Used for logging
// only; the job's outcome is observable through the Tag entity's eventual
// presence, never through the document's processing state.
type tagJobState string

const (
	tagJobPending    tagJobState = "pending"
	tagJobCandidates tagJobState = "candidate-generated"
	tagJobVerifying  tagJobState = "verifying"
	tagJobTagged     tagJobState = "tagged"
	tagJobFailed     tagJobState = "tagging-failed"
)

// TaggingConfig configures the two-stage pipeline.
type TaggingConfig struct {
	// Vocabulary is the fixed set of candidate labels.
	Vocabulary []string

	// CandidateThreshold is the stage-one similarity cutoff.
	CandidateThreshold float64

	// MaxCandidates is the stage-one top-K truncation.
	MaxCandidates int

	// VerifyThreshold is the stage-two confidence cutoff.
	VerifyThreshold float64
}

// DefaultTaggingConfig returns the default pipeline configuration with a
// general-purpose object vocabulary.
func DefaultTaggingConfig() TaggingConfig {
	return TaggingConfig{
		Vocabulary:         defaultVocabulary(),
		CandidateThreshold: DefaultCandidateThreshold,
		MaxCandidates:      DefaultMaxCandidates,
		VerifyThreshold:    DefaultVerifyThreshold,
	}
}

// defaultVocabulary lists common object labels for candidate generation.
func defaultVocabulary() []string {
	return []string{
		"person", "face", "man", "woman", "child",
		"cat", "dog", "bird", "horse", "fish",
		"car", "truck", "bus", "bicycle", "motorcycle", "airplane", "boat", "train",
		"chair", "table", "sofa", "bed", "desk", "shelf",
		"laptop", "phone", "keyboard", "monitor", "screen", "television",
		"book", "document", "paper", "whiteboard", "chart", "graph", "diagram",
		"bottle", "cup", "glass", "plate", "food", "fruit", "vegetable",
		"tree", "flower", "plant", "grass", "mountain", "sky", "cloud",
		"building", "house", "bridge", "road", "sign", "window", "door",
		"bag", "clothing", "shoe", "hat", "watch", "logo",
	}
}

// candidate is a stage-one result: a label with its similarity score.
type candidate struct {
	label string
	score float64
}

// TaggingPipeline detects and localises visual tags on uploaded images in
// two stages: a cheap high-recall similarity filter over a fixed label
// vocabulary, then an expensive high-precision zero-shot verification per
// surviving candidate. Only verified detections are persisted. The pipeline
// has no notion of provenance; restricting it to directly uploaded images
// is the ingestion pipeline's job.
type TaggingPipeline struct {
	crossModal driven.CrossModalEmbedder
	detector   driven.ObjectDetector
	tagStore   driven.TagStore
	cfg        TaggingConfig

	// Label embeddings are computed once per process and shared read-only
	// across concurrent jobs; no mutation after initialisation.
	labelOnce sync.Once
	labelVecs map[string][]float32
	labelErr  error
}

// NewTaggingPipeline creates the pipeline. The detector may be nil, in
// which case every job fails with domain.ErrTaggingFailed (tag absence is
// the only symptom).
func NewTaggingPipeline(
	crossModal driven.CrossModalEmbedder,
	detector driven.ObjectDetector,
	tagStore driven.TagStore,
	cfg TaggingConfig,
) *TaggingPipeline {
	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = defaultVocabulary()
	}
	if cfg.CandidateThreshold <= 0 {
		cfg.CandidateThreshold = DefaultCandidateThreshold
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	if cfg.VerifyThreshold <= 0 {
		cfg.VerifyThreshold = DefaultVerifyThreshold
	}
	return &TaggingPipeline{
		crossModal: crossModal,
		detector:   detector,
		tagStore:   tagStore,
		cfg:        cfg,
	}
}

// TagImage runs both stages for one uploaded image chunk and persists the
// verified tags. imageVec is the chunk's cross-modal embedding, reused from
// ingestion so the image is not embedded twice.
func (p *TaggingPipeline) TagImage(ctx context.Context, userID, chunkID string, image []byte, imageVec []float32) error {
	state := tagJobPending
	logger.Debug("Tagging %s: %s", chunkID, state)

	if p.detector == nil {
		return fmt.Errorf("%w: no detector configured", domain.ErrTaggingFailed)
	}

	candidates, err := p.generateCandidates(ctx, imageVec)
	if err != nil {
		return fmt.Errorf("%w: candidate generation: %v", domain.ErrTaggingFailed, err)
	}
	state = tagJobCandidates
	logger.Debug("Tagging %s: %s, %d candidates", chunkID, state, len(candidates))

	if len(candidates) == 0 {
		logger.Info("Tagging %s: no candidates above %.2f", chunkID, p.cfg.CandidateThreshold)
		return nil
	}

	state = tagJobVerifying
	logger.Debug("Tagging %s: %s", chunkID, state)

	tagged := 0
	for _, cand := range candidates {
		detections, err := p.detector.Detect(ctx, image, cand.label)
		if err != nil {
			state = tagJobFailed
			logger.Debug("Tagging %s: %s on label %q", chunkID, state, cand.label)
			return fmt.Errorf("%w: verify %q: %v", domain.ErrTaggingFailed, cand.label, err)
		}

		best, ok := bestDetection(detections, p.cfg.VerifyThreshold)
		if !ok {
			// Candidate did not survive verification; discard.
			continue
		}

		chunkRef := chunkID
		box := best.Box
		tag := domain.Tag{
			ID:         uuid.New().String(),
			UserID:     userID,
			Label:      cand.label,
			Confidence: best.Confidence,
			Verified:   true,
			Box:        &box,
			Source:     domain.TagSourceImage,
			ChunkID:    &chunkRef,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tag.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTaggingFailed, err)
		}
		if err := p.tagStore.SaveTag(ctx, &tag); err != nil {
			return fmt.Errorf("%w: persist %q: %v", domain.ErrTaggingFailed, cand.label, err)
		}
		tagged++
	}

	state = tagJobTagged
	logger.Info("Tagging %s: %s, %d/%d candidates verified", chunkID, state, tagged, len(candidates))
	return nil
}

// generateCandidates is stage one: cosine similarity between the image
// embedding and every cached label embedding, kept above the threshold,
// sorted descending, truncated to top-K.
func (p *TaggingPipeline) generateCandidates(ctx context.Context, imageVec []float32) ([]candidate, error) {
	vecs, err := p.labelEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(vecs))
	for _, label := range p.cfg.Vocabulary {
		vec, ok := vecs[label]
		if !ok {
			continue
		}
		score := cosineSimilarity(imageVec, vec)
		if score >= p.cfg.CandidateThreshold {
			candidates = append(candidates, candidate{label: label, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > p.cfg.MaxCandidates {
		candidates = candidates[:p.cfg.MaxCandidates]
	}
	return candidates, nil
}

// labelEmbeddings lazily embeds the fixed vocabulary once and caches the
// result for the lifetime of the process.
func (p *TaggingPipeline) labelEmbeddings(ctx context.Context) (map[string][]float32, error) {
	p.labelOnce.Do(func() {
		if p.crossModal == nil {
			p.labelErr = domain.ErrEmbeddingUnavailable
			return
		}
		logger.Debug("Tagging: embedding %d vocabulary labels", len(p.cfg.Vocabulary))
		vecs := make(map[string][]float32, len(p.cfg.Vocabulary))
		for _, label := range p.cfg.Vocabulary {
			vec, err := p.crossModal.EmbedText(ctx, label)
			if err != nil {
				p.labelErr = fmt.Errorf("embed label %q: %w", label, err)
				return
			}
			vecs[label] = vec
		}
		p.labelVecs = vecs
	})
	return p.labelVecs, p.labelErr
}

// bestDetection picks the highest-confidence detection at or above the
// verification threshold.
func bestDetection(detections []driven.Detection, threshold float64) (driven.Detection, bool) {
	var best driven.Detection
	found := false
	for _, d := range detections {
		if d.Confidence < threshold {
			continue
		}
		if !found || d.Confidence > best.Confidence {
			best = d
			found = true
		}
	}
	return best, found
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
