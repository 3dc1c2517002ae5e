package services_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/filestorage"
	"github.com/yigit/feedsphere/internal/pkg/vision"
)

type mockMessageStore struct {
	createFn       func(ctx context.Context, message *models.Message) error
	listAllFn      func(ctx context.Context) ([]*models.Message, error)
	listByAuthorFn func(ctx context.Context, author string) ([]*models.Message, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*models.Message, error)
	created        []*models.Message
}

func (m *mockMessageStore) Create(ctx context.Context, message *models.Message) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, message); err != nil {
			return err
		}
	}
	m.created = append(m.created, message)
	return nil
}

func (m *mockMessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	for _, message := range m.created {
		if message.ID == id {
			return message, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (m *mockMessageStore) ListAll(ctx context.Context) ([]*models.Message, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return m.created, nil
}

func (m *mockMessageStore) ListByAuthor(ctx context.Context, author string) ([]*models.Message, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, author)
	}
	return nil, nil
}

// memoryCommentStore mirrors the transactional insert-and-append of the Postgres store
type memoryCommentStore struct {
	messages map[uuid.UUID]*models.Message
	comments []*models.Comment
	listErr  error
	writeErr error
}

func newMemoryCommentStore(messages ...*models.Message) *memoryCommentStore {
	store := &memoryCommentStore{messages: map[uuid.UUID]*models.Message{}}
	for _, message := range messages {
		store.messages[message.ID] = message
	}
	return store
}

func (m *memoryCommentStore) CreateForMessage(_ context.Context, comment *models.Comment) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	message, ok := m.messages[comment.MessageID]
	if !ok {
		return apperrors.ErrMessageNotFound
	}
	m.comments = append(m.comments, comment)
	message.CommentIDs = append(message.CommentIDs, comment.ID)
	return nil
}

func (m *memoryCommentStore) ListByMessage(_ context.Context, messageID uuid.UUID) ([]*models.Comment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Comment
	for _, comment := range m.comments {
		if comment.MessageID == messageID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type mockMarkerStore struct {
	createErr error
	created   []*models.Marker
	listFn    func(ctx context.Context) ([]*models.Marker, error)
}

func (m *mockMarkerStore) Create(_ context.Context, marker *models.Marker) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, marker)
	return nil
}

func (m *mockMarkerStore) ListAll(ctx context.Context) ([]*models.Marker, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return m.created, nil
}

type mockBlobs struct {
	data    []byte
	err     error
	fetched []filestorage.Ref
}

func (m *mockBlobs) Fetch(_ context.Context, ref filestorage.Ref) ([]byte, error) {
	m.fetched = append(m.fetched, ref)
	return m.data, m.err
}

type mockURLs struct {
	err error
}

func (m *mockURLs) ServingURL(ref filestorage.Ref) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "http://localhost:8080/uploads/" + string(ref), nil
}

type mockScorer struct {
	score float64
	err   error
	mu    sync.Mutex
	texts []string
}

func (m *mockScorer) Score(_ context.Context, text string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return m.score, m.err
}

func (m *mockScorer) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// mockAnalyzer answers Detect from a canned detection per kind
type mockAnalyzer struct {
	detections map[vision.Kind]vision.Detection
	mu         sync.Mutex
	kinds      []vision.Kind
}

func (m *mockAnalyzer) Detect(_ context.Context, _ []byte, kind vision.Kind) vision.Detection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
	if d, ok := m.detections[kind]; ok {
		return d
	}
	return vision.Succeeded(nil)
}

func (m *mockAnalyzer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.kinds)
}

type mockPublisher struct {
	messages []*models.Message
	comments []*models.Comment
}

func (m *mockPublisher) MessageCreated(_ context.Context, message *models.Message) {
	m.messages = append(m.messages, message)
}

func (m *mockPublisher) CommentCreated(_ context.Context, comment *models.Comment) {
	m.comments = append(m.comments, comment)
}
