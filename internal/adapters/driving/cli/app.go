package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/mural-labs/mural/internal/adapters/driven/config/file"
	"github.com/mural-labs/mural/internal/adapters/driven/detector/owlvit"
	"github.com/mural-labs/mural/internal/adapters/driven/embedding/clip"
	embedmem "github.com/mural-labs/mural/internal/adapters/driven/embedding/memory"
	openaiembed "github.com/mural-labs/mural/internal/adapters/driven/embedding/openai"
	openaillm "github.com/mural-labs/mural/internal/adapters/driven/llm/openai"
	"github.com/mural-labs/mural/internal/adapters/driven/queue"
	"github.com/mural-labs/mural/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/mural-labs/mural/internal/adapters/driven/vectorindex/memory"
	"github.com/mural-labs/mural/internal/adapters/driven/vectorindex/pinecone"
	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driven"
	"github.com/mural-labs/mural/internal/core/services"
	"github.com/mural-labs/mural/internal/logger"
)

// defaultTextDimensions matches text-embedding-3-small, used to size the
// text index when no embedding credentials are configured.
const defaultTextDimensions = 1536

// closers are run after the command finishes, in reverse order.
var closers []func()

// servicesReady short-circuits wiring when services were already injected.
var servicesReady bool

// initServices wires the concrete adapters into the core services. Parts
// that lack credentials stay nil and their commands report that instead of
// failing at startup: document and group management work without any
// external service.
func initServices() error {
	if servicesReady {
		return nil
	}
	servicesReady = true

	// Credentials come from the environment; a .env in the working
	// directory is a convenience, not a requirement.
	_ = godotenv.Load()

	cfg, err := file.LoadConfig(configDir)
	if err != nil {
		return err
	}

	userID = cfg.UserID
	if userID == "" {
		userID = "default"
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })

	clipEmbedder := clip.NewCrossModalEmbedder(clip.Config{
		BaseURL: cfg.Embedding.ClipURL,
	})
	det := owlvit.NewDetector(owlvit.Config{
		BaseURL:        cfg.Detector.URL,
		RequestsPerSec: cfg.Detector.RequestsPerSec,
	})
	tagging := services.NewTaggingPipeline(clipEmbedder, det, store.TagStore(), services.TaggingConfig{})

	pool := queue.NewPool(cfg.Tagging.Workers)
	closers = append(closers, pool.Close)

	var textEmbedder driven.TextEmbedder
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		logger.Warn("OPENAI_API_KEY not set: using deterministic local embeddings, ask is disabled")
		textEmbedder = embedmem.NewTextEmbedder(defaultTextDimensions)
	} else {
		textEmbedder, err = openaiembed.NewTextEmbedder(openaiembed.Config{
			APIKey: openaiKey,
			Model:  cfg.Embedding.Model,
		})
		if err != nil {
			return fmt.Errorf("configure text embedder: %w", err)
		}
	}

	pineconeKey := os.Getenv("PINECONE_API_KEY")
	textIndex, err := newIndex(domain.IndexText, textEmbedder.Dimensions(), cfg.Pinecone.TextHost, pineconeKey)
	if err != nil {
		return err
	}
	uploadedIndex, err := newIndex(domain.IndexUploadedImages, clipEmbedder.Dimensions(), cfg.Pinecone.UploadedImagesHost, pineconeKey)
	if err != nil {
		return err
	}
	extractedIndex, err := newIndex(domain.IndexExtractedImages, clipEmbedder.Dimensions(), cfg.Pinecone.ExtractedImagesHost, pineconeKey)
	if err != nil {
		return err
	}

	registry := services.NewRegistry(store.DocumentStore(), textIndex, uploadedIndex, extractedIndex)
	documentService = services.NewDocumentManager(store.DocumentStore(), registry)
	groupService = services.NewGroupManager(store.GroupStore())

	dispatcher := services.NewDispatcher(textEmbedder, clipEmbedder)
	searcher := services.NewSearcher(store.DocumentStore(), store.TagStore(), registry, dispatcher)
	searchService = searcher
	ingestService = services.NewIngestor(store.DocumentStore(), registry, dispatcher, tagging, pool, nil)

	if openaiKey == "" {
		return nil
	}

	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey: openaiKey,
		Model:  cfg.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("configure llm: %w", err)
	}

	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return fmt.Errorf("configure prompt store: %w", err)
	}
	if err := prompts.Watch(); err != nil {
		logger.Warn("Prompt hot reload unavailable: %v", err)
	}
	closers = append(closers, func() { _ = prompts.Close() })

	chatService = services.NewChatOrchestrator(store.GroupStore(), searcher, llm, prompts)
	return nil
}

// newIndex returns a Pinecone-backed index when a host and key are
// configured, and an in-process index otherwise so that everything keeps
// working offline, without persistence across runs.
func newIndex(name string, dims int, host, apiKey string) (driven.VectorIndex, error) {
	if host == "" || apiKey == "" {
		logger.Warn("Index %s not configured: vectors are held in memory for this run", name)
		return vectormem.NewIndex(name, dims), nil
	}
	idx, err := pinecone.NewIndex(pinecone.Config{
		Host:       host,
		APIKey:     apiKey,
		Name:       name,
		Dimensions: dims,
	})
	if err != nil {
		return nil, fmt.Errorf("configure index %s: %w", name, err)
	}
	return idx, nil
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
