package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/dberrors"
	"github.com/yigit/feedsphere/internal/pkg/logger"
)

// ErrMessageAlreadyExists is returned when a message id is reused
var ErrMessageAlreadyExists = errors.New("message already exists")

var messageColumns = []string{
	"id", "author", "text", "sentiment_score",
	"image_url", "image_labels", "image_landmark", "image_lat", "image_long",
	"comment_ids", "created_at",
}

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a fully assembled message
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	commentIDs := message.CommentIDs
	if commentIDs == nil {
		commentIDs = []uuid.UUID{}
	}

	sql, args, err := psql.Insert("messages").
		Columns(messageColumns...).
		Values(
			message.ID, message.Author, message.Text, message.SentimentScore,
			message.ImageURL, message.ImageLabels, message.ImageLandmark, message.ImageLat, message.ImageLong,
			commentIDs, message.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert message query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "messages_pkey") {
			return ErrMessageAlreadyExists
		}
		logger.Error().Err(err).Str("messageID", message.ID.String()).Msg("Error inserting message")
		return fmt.Errorf("error creating message: %w", classify(err))
	}

	return nil
}

// GetByID retrieves a message by its ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	sql, args, err := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get message query: %w", err)
	}

	message, err := scanMessage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("error retrieving message: %w", classify(err))
	}

	return message, nil
}

// ListAll returns every message, newest first
func (r *MessageRepository) ListAll(ctx context.Context) ([]*models.Message, error) {
	return r.list(ctx, nil)
}

// ListByAuthor returns the messages of one author, newest first
func (r *MessageRepository) ListByAuthor(ctx context.Context, author string) ([]*models.Message, error) {
	return r.list(ctx, squirrel.Eq{"author": author})
}

func (r *MessageRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.Message, error) {
	query := psql.Select(messageColumns...).
		From("messages").
		OrderBy("created_at DESC", "id")
	if where != nil {
		query = query.Where(where)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list messages query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing list messages query: %w", classify(err))
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var message models.Message
	err := row.Scan(
		&message.ID,
		&message.Author,
		&message.Text,
		&message.SentimentScore,
		&message.ImageURL,
		&message.ImageLabels,
		&message.ImageLandmark,
		&message.ImageLat,
		&message.ImageLong,
		&message.CommentIDs,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if message.CommentIDs == nil {
		message.CommentIDs = []uuid.UUID{}
	}
	return &message, nil
}
