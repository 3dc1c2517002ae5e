package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/metrics"
	"github.com/yigit/feedsphere/internal/pkg/sanitizer"
	"github.com/yigit/feedsphere/internal/pkg/sentiment"
)

// CommentService defines the interface for comment operations
type CommentService interface {
	AddComment(ctx context.Context, author string, messageID uuid.UUID, rawText string) (*models.Comment, error)
	// ListComments returns an empty list for a missing, malformed or unknown message id
	ListComments(ctx context.Context, messageID string) ([]*models.Comment, error)
}

// commentServiceImpl implements CommentService
type commentServiceImpl struct {
	comments  CommentStore
	scorer    sentiment.Scorer
	publisher FeedPublisher
	logger    zerolog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(comments CommentStore, scorer sentiment.Scorer, publisher FeedPublisher, logger zerolog.Logger) CommentService {
	return &commentServiceImpl{
		comments:  comments,
		scorer:    scorer,
		publisher: publisherOrNoop(publisher),
		logger:    logger,
	}
}

// AddComment sanitizes and scores a comment, then attaches it to its message
func (s *commentServiceImpl) AddComment(ctx context.Context, author string, messageID uuid.UUID, rawText string) (*models.Comment, error) {
	start := time.Now()
	comment, err := s.addComment(ctx, author, messageID, rawText)
	metrics.RecordIngest("comment", err, time.Since(start))
	return comment, err
}

func (s *commentServiceImpl) addComment(ctx context.Context, author string, messageID uuid.UUID, rawText string) (*models.Comment, error) {
	if strings.TrimSpace(author) == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	score, err := s.scorer.Score(ctx, rawText)
	if err != nil {
		s.logger.Error().Err(err).Str("messageID", messageID.String()).Msg("Comment sentiment scoring failed")
		return nil, apperrors.NewRequiredStageError(stageSentiment, err)
	}

	comment := &models.Comment{
		ID:             uuid.New(),
		MessageID:      messageID,
		Author:         author,
		Text:           sanitizer.Sanitize(rawText),
		SentimentScore: score,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.comments.CreateForMessage(ctx, comment); err != nil {
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrMessageNotFound, "Message not found")
		}
		s.logger.Error().Err(err).Str("messageID", messageID.String()).Msg("Failed to persist comment")
		return nil, apperrors.NewStorageError("persist comment", err)
	}

	s.publisher.CommentCreated(ctx, comment)

	s.logger.Info().
		Str("commentID", comment.ID.String()).
		Str("messageID", messageID.String()).
		Str("author", author).
		Msg("Comment created")

	return comment, nil
}

// ListComments returns the comments of a message in creation order
func (s *commentServiceImpl) ListComments(ctx context.Context, messageID string) ([]*models.Comment, error) {
	id, err := uuid.Parse(strings.TrimSpace(messageID))
	if err != nil {
		return []*models.Comment{}, nil
	}

	comments, err := s.comments.ListByMessage(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("list comments", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}
