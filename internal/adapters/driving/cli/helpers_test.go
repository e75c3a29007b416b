package cli

import (
	"context"
	"errors"

	"github.com/mural-labs/mural/internal/core/domain"
	"github.com/mural-labs/mural/internal/core/ports/driving"
)

// setupTestServices installs mock services and returns a cleanup that
// restores the previous state.
func setupTestServices() func() {
	oldIngest := ingestService
	oldSearch := searchService
	oldChat := chatService
	oldDocument := documentService
	oldGroup := groupService
	oldUserID := userID
	oldReady := servicesReady

	ingestService = &mockIngestService{}
	searchService = &mockSearchService{}
	chatService = &mockChatService{}
	documentService = &mockDocumentService{}
	groupService = &mockGroupService{}
	userID = "test-user"
	servicesReady = true

	return func() {
		ingestService = oldIngest
		searchService = oldSearch
		chatService = oldChat
		documentService = oldDocument
		groupService = oldGroup
		userID = oldUserID
		servicesReady = oldReady
	}
}

type mockIngestService struct {
	lastRequest driving.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*domain.Document, error) {
	m.lastRequest = req
	return &domain.Document{
		ID:         "doc-1",
		Name:       req.Name,
		State:      domain.StateCompleted,
		ChunkCount: 2,
	}, nil
}

type mockSearchService struct {
	err error
}

func (m *mockSearchService) Search(_ context.Context, _, _ string, _ []byte, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.SearchResult{
		{
			ChunkID:    "chunk-1",
			DocumentID: "doc-1",
			Score:      0.95,
			Modality:   domain.ModalityText,
			Content:    "the quick brown fox",
			Highlights: []domain.HighlightSpan{{Start: 4, End: 9}},
		},
	}, nil
}

func (m *mockSearchService) SearchTags(_ context.Context, _ string, labels []string, _ float64, _ int) ([]domain.Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	chunkID := "chunk-1"
	return []domain.Tag{
		{ID: "tag-1", Label: labels[0], Confidence: 0.8, Source: domain.TagSourceImage, ChunkID: &chunkID},
	}, nil
}

type mockChatService struct {
	err error
}

func (m *mockChatService) Ask(_ context.Context, _, _ string, onDelta func(string) error) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if onDelta != nil {
		if err := onDelta("the answer"); err != nil {
			return nil, err
		}
	}
	return &domain.Answer{
		Text: "the answer",
		Sources: []domain.SearchResult{
			{ChunkID: "chunk-1", DocumentID: "doc-1", Score: 0.9},
		},
	}, nil
}

type mockDocumentService struct {
	deleted []string
}

func (m *mockDocumentService) Get(_ context.Context, _, id string) (*domain.Document, error) {
	if id == "missing" {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{ID: id, Name: "report.txt", ContentType: "text/plain", State: domain.StateCompleted}, nil
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return []domain.Document{
		{ID: "doc-1", Name: "report.txt", State: domain.StateCompleted},
	}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, _, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) ReassignGroup(_ context.Context, _, _ string, _ *string) error {
	return nil
}

type mockGroupService struct {
	created []string
}

func (m *mockGroupService) Create(_ context.Context, userID, name string) (*domain.Group, error) {
	m.created = append(m.created, name)
	return &domain.Group{ID: "group-1", UserID: userID, Name: name}, nil
}

func (m *mockGroupService) List(_ context.Context, _ string) ([]domain.Group, error) {
	return []domain.Group{{ID: "group-1", Name: "reports"}}, nil
}

func (m *mockGroupService) Delete(_ context.Context, _, id string) error {
	if id == "missing" {
		return domain.ErrNotFound
	}
	return nil
}

var errMockFailure = errors.New("mock failure")
