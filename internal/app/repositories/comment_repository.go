package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/db"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/logger"
)

// CommentRepository handles database operations for comments
type CommentRepository struct {
	db *db.PostgresDB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(database *db.PostgresDB) *CommentRepository {
	return &CommentRepository{db: database}
}

// CreateForMessage inserts the comment and appends its id to the owning message's
// comment list in one transaction. Returns apperrors.ErrMessageNotFound, with nothing
// written, when the message does not exist.
func (r *CommentRepository) CreateForMessage(ctx context.Context, comment *models.Comment) error {
	insertSQL, insertArgs, err := psql.Insert("comments").
		Columns("id", "message_id", "author", "text", "sentiment_score", "created_at").
		Values(comment.ID, comment.MessageID, comment.Author, comment.Text, comment.SentimentScore, comment.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert comment query: %w", err)
	}

	appendSQL, appendArgs, err := psql.Update("messages").
		Set("comment_ids", squirrel.Expr("array_append(comment_ids, ?)", comment.ID)).
		Where(squirrel.Eq{"id": comment.MessageID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build append comment id query: %w", err)
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
			logger.Error().Err(err).Str("messageID", comment.MessageID.String()).Msg("Error inserting comment")
			return fmt.Errorf("error creating comment: %w", classify(err))
		}

		cmdTag, err := tx.Exec(ctx, appendSQL, appendArgs...)
		if err != nil {
			return fmt.Errorf("error appending comment id: %w", classify(err))
		}

		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrMessageNotFound
		}

		return nil
	})
}

// ListByMessage returns the comments of one message in creation order
func (r *CommentRepository) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]*models.Comment, error) {
	sql, args, err := psql.Select("id", "message_id", "author", "text", "sentiment_score", "created_at").
		From("comments").
		Where(squirrel.Eq{"message_id": messageID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list comments query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing list comments query: %w", classify(err))
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.MessageID,
			&comment.Author,
			&comment.Text,
			&comment.SentimentScore,
			&comment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning comment row: %w", err)
		}
		comments = append(comments, &comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}

	return comments, nil
}
