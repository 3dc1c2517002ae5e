package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/filestorage"
)

// Services defined in this package:
// - MessageService: runs the message ingestion pipeline
// - CommentService: enriches and attaches comments, lists them per message
// - FeedService: serves the label-filterable feed and per-author listings
// - MarkerService: lists landmark markers for the map view

// MessageStore persists messages
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListAll(ctx context.Context) ([]*models.Message, error)
	ListByAuthor(ctx context.Context, author string) ([]*models.Message, error)
}

// CommentStore persists comments. CreateForMessage must insert the comment and append
// its id to the message atomically, returning apperrors.ErrMessageNotFound for an
// unknown message.
type CommentStore interface {
	CreateForMessage(ctx context.Context, comment *models.Comment) error
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]*models.Comment, error)
}

// MarkerStore persists landmark markers
type MarkerStore interface {
	Create(ctx context.Context, marker *models.Marker) error
	ListAll(ctx context.Context) ([]*models.Marker, error)
}

// BlobFetcher reads a whole stored blob
type BlobFetcher interface {
	Fetch(ctx context.Context, ref filestorage.Ref) ([]byte, error)
}

// URLResolver maps a stored blob onto its public URL
type URLResolver interface {
	ServingURL(ref filestorage.Ref) (string, error)
}

// FeedPublisher announces newly persisted records to live feed clients
type FeedPublisher interface {
	MessageCreated(ctx context.Context, message *models.Message)
	CommentCreated(ctx context.Context, comment *models.Comment)
}

type noopPublisher struct{}

func (noopPublisher) MessageCreated(context.Context, *models.Message) {}
func (noopPublisher) CommentCreated(context.Context, *models.Comment) {}

func publisherOrNoop(p FeedPublisher) FeedPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
