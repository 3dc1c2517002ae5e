package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
)

// FeedService defines the interface for feed queries
type FeedService interface {
	// Feed lists messages newest first, keeping only those carrying any of the given labels
	Feed(ctx context.Context, labels []string) ([]*models.Message, error)
	// UserMessages lists one author's messages newest first; an empty author yields none
	UserMessages(ctx context.Context, author string) ([]*models.Message, error)
	// GetMessage returns one message; malformed and unknown ids are not found
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
}

// feedServiceImpl implements FeedService
type feedServiceImpl struct {
	messages MessageStore
	logger   zerolog.Logger
}

// NewFeedService creates a new FeedService
func NewFeedService(messages MessageStore, logger zerolog.Logger) FeedService {
	return &feedServiceImpl{messages: messages, logger: logger}
}

// Feed lists the feed, optionally filtered by label
func (s *feedServiceImpl) Feed(ctx context.Context, labels []string) ([]*models.Message, error) {
	messages, err := s.messages.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list messages", err)
	}

	filtered := FilterByLabels(messages, labels)
	s.logger.Debug().Strs("labels", labels).Int("count", len(filtered)).Msg("Feed listed")
	return filtered, nil
}

// UserMessages lists the messages of one author
func (s *feedServiceImpl) UserMessages(ctx context.Context, author string) ([]*models.Message, error) {
	if strings.TrimSpace(author) == "" {
		return []*models.Message{}, nil
	}

	messages, err := s.messages.ListByAuthor(ctx, author)
	if err != nil {
		return nil, apperrors.NewStorageError("list user messages", err)
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}

// GetMessage looks up a single message by id
func (s *feedServiceImpl) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	id, err := uuid.Parse(strings.TrimSpace(messageID))
	if err != nil {
		return nil, apperrors.NewResourceNotFoundError("Message not found")
	}

	message, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Message not found")
		}
		return nil, apperrors.NewStorageError("get message", err)
	}
	return message, nil
}

// FilterByLabels keeps messages whose labels intersect the wanted set, comparing
// lower-cased. Blank wanted labels are ignored and no wanted labels keeps everything.
// Messages without an image never match a filter. Order is preserved.
func FilterByLabels(messages []*models.Message, wanted []string) []*models.Message {
	set := make(map[string]struct{}, len(wanted))
	for _, label := range wanted {
		if label = strings.ToLower(strings.TrimSpace(label)); label != "" {
			set[label] = struct{}{}
		}
	}

	if len(set) == 0 {
		if messages == nil {
			return []*models.Message{}
		}
		return messages
	}

	filtered := make([]*models.Message, 0, len(messages))
	for _, message := range messages {
		if !message.HasImage() {
			continue
		}
		for _, label := range message.ImageLabels {
			if _, ok := set[strings.ToLower(label)]; ok {
				filtered = append(filtered, message)
				break
			}
		}
	}
	return filtered
}
