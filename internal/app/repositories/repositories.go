package repositories

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/feedsphere/internal/db"
	"github.com/yigit/feedsphere/internal/pkg/dberrors"
)

// ErrSchemaMissing is returned when a table does not exist yet
var ErrSchemaMissing = errors.New("database schema is not migrated")

// psql is the statement builder shared by every repository
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	MessageRepository *MessageRepository
	CommentRepository *CommentRepository
	MarkerRepository  *MarkerRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		MessageRepository: NewMessageRepository(database.Pool),
		CommentRepository: NewCommentRepository(database),
		MarkerRepository:  NewMarkerRepository(database.Pool),
	}
}

// classify tags well-known driver errors before they are wrapped
func classify(err error) error {
	if dberrors.IsUndefinedTableError(err) {
		return errors.Join(ErrSchemaMissing, err)
	}
	return err
}
