package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/core/ports/driving"
	"github.com/mural-labs/mural/internal/logger"
)

// Ensure ChatOrchestrator implements the interface.
var _ driving.ChatService = (*ChatOrchestrator)(nil)

// Default prompt templates. A PromptStore can override them.
const (
	defaultDecideParamsPrompt = `You choose retrieval parameters for a document search engine.
Available groups (id: name), one per line:
%s

Question: %s

Answer with a single JSON object and nothing else:
{"query": "<cleaned search query>", "k": <result count 1-50>, "group_id": "<group id or empty>", "lexical_weight": <0.0-1.0>}`

	defaultAnswerSystemPrompt = `You answer questions about the user's documents.
Use the retrieved context below only when it is relevant to the question.
If the context does not contain the answer, say so instead of guessing.

Retrieved context:
%s`
)

// ChatOrchestrator runs the answer pipeline: a strictly sequential state
// machine with no branching back.
//
//	list_groups -> decide_params -> retrieve -> answer -> done
type ChatOrchestrator struct {
	groupStore driven.GroupStore
	searcher   driving.SearchService
	llm        driven.LLMService
	prompts    driven.PromptStore
}

// NewChatOrchestrator creates the orchestrator. prompts may be nil; the
// compiled-in templates then apply.
func NewChatOrchestrator(
	groupStore driven.GroupStore,
	searcher driving.SearchService,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *ChatOrchestrator {
	return &ChatOrchestrator{
		groupStore: groupStore,
		searcher:   searcher,
		llm:        llm,
		prompts:    prompts,
	}
}

// decidedParams is the JSON shape the parameter decision step must return.
type decidedParams struct {
	Query         string  `json:"query"`
	K             int     `json:"k"`
	GroupID       string  `json:"group_id"`
	LexicalWeight float64 `json:"lexical_weight"`
}

// Ask answers one question. Any external-call failure terminates the
// pipeline and surfaces a generic retrieval/answer error; partial state is
// not retried.
func (c *ChatOrchestrator) Ask(
	ctx context.Context, userID, question string, onDelta func(delta string) error,
) (*domain.Answer, error) {
	if c.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidQuery)
	}

	logger.Section("Answer Orchestration")

	// State: list_groups.
	groups, err := c.groupStore.ListGroups(ctx, userID)
	if err != nil {
		return nil, c.pipelineErr("list groups", err)
	}
	logger.Debug("list_groups: %d groups", len(groups))

	// State: decide_params.
	params := c.decideParams(ctx, question, groups)
	logger.Debug("decide_params: query=%q k=%d weight=%.2f", params.Query, params.Limit, params.LexicalWeight)

	// State: retrieve.
	sources, err := c.searcher.Search(ctx, userID, params.Query, nil, domain.SearchOptions{
		Route:         domain.RouteText,
		Limit:         params.Limit,
		GroupID:       params.GroupID,
		LexicalWeight: params.LexicalWeight,
	})
	if err != nil {
		return nil, c.pipelineErr("retrieve", err)
	}
	logger.Debug("retrieve: %d sources", len(sources))

	contextText := buildContext(sources)

	// State: answer.
	systemPrompt := fmt.Sprintf(c.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt), contextText)
	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: question},
	}

	text, err := c.llm.GenerateStream(ctx, messages, driven.GenerateOptions{}, onDelta)
	if err != nil {
		return nil, c.pipelineErr("answer", err)
	}

	return &domain.Answer{Text: text, Sources: sources}, nil
}

// decideParams asks the model for retrieval parameters and validates its
// output against the same constraints as a direct search. Invalid output
// falls back to defaults rather than failing the whole request.
func (c *ChatOrchestrator) decideParams(ctx context.Context, question string, groups []domain.Group) domain.RetrievalParams {
	fallback := domain.RetrievalParams{}.Normalised(question)

	lines := make([]string, len(groups))
	byID := make(map[string]bool, len(groups))
	for i, g := range groups {
		lines[i] = fmt.Sprintf("%s: %s", g.ID, g.Name)
		byID[g.ID] = true
	}
	if len(lines) == 0 {
		lines = []string{"(none)"}
	}

	prompt := fmt.Sprintf(c.loadPrompt(driven.PromptDecideParams, defaultDecideParamsPrompt),
		strings.Join(lines, "\n"), question)

	raw, err := c.llm.Generate(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}}, driven.GenerateOptions{
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("decide_params failed, using defaults: %v", err)
		return fallback
	}

	var decided decidedParams
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &decided); err != nil {
		logger.Warn("decide_params returned unparseable output, using defaults: %v", err)
		return fallback
	}

	params := domain.RetrievalParams{
		Query:         decided.Query,
		Limit:         decided.K,
		LexicalWeight: decided.LexicalWeight,
	}
	// Only accept a group the user actually owns.
	if decided.GroupID != "" && byID[decided.GroupID] {
		groupID := decided.GroupID
		params.GroupID = &groupID
	}
	return params.Normalised(question)
}

// buildContext concatenates source text under the fixed character budget,
// to respect the generation model's context window.
func buildContext(sources []domain.SearchResult) string {
	var b strings.Builder
	for i, src := range sources {
		section := fmt.Sprintf("[%d] %s\n", i+1, src.Content)
		if b.Len()+len(section) > domain.ContextCharBudget {
			remaining := domain.ContextCharBudget - b.Len()
			if remaining > 0 {
				b.WriteString(section[:remaining])
			}
			break
		}
		b.WriteString(section)
	}
	return b.String()
}

// loadPrompt returns the stored template for name, or the default.
func (c *ChatOrchestrator) loadPrompt(name, fallback string) string {
	if c.prompts == nil {
		return fallback
	}
	prompt, err := c.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// pipelineErr classifies a step failure: deadline overruns become
// ErrRetrievalTimeout, everything else surfaces as a generic step error.
func (c *ChatOrchestrator) pipelineErr(step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrRetrievalTimeout) {
		return fmt.Errorf("%w: %s", domain.ErrRetrievalTimeout, step)
	}
	return fmt.Errorf("%s: %w", step, err)
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models add around JSON despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
