package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/feedsphere/internal/app/models"
)

// MarkerRepository handles database operations for landmark markers
type MarkerRepository struct {
	db *pgxpool.Pool
}

// NewMarkerRepository creates a new MarkerRepository
func NewMarkerRepository(db *pgxpool.Pool) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// Create inserts a marker
func (r *MarkerRepository) Create(ctx context.Context, marker *models.Marker) error {
	sql, args, err := psql.Insert("markers").
		Columns("id", "lat", "lng", "content", "created_at").
		Values(marker.ID, marker.Lat, marker.Lng, marker.Content, marker.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert marker query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error creating marker: %w", classify(err))
	}

	return nil
}

// ListAll returns every marker, oldest first
func (r *MarkerRepository) ListAll(ctx context.Context) ([]*models.Marker, error) {
	sql, args, err := psql.Select("id", "lat", "lng", "content", "created_at").
		From("markers").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list markers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing list markers query: %w", classify(err))
	}
	defer rows.Close()

	markers := make([]*models.Marker, 0)
	for rows.Next() {
		var marker models.Marker
		if err := rows.Scan(&marker.ID, &marker.Lat, &marker.Lng, &marker.Content, &marker.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning marker row: %w", err)
		}
		markers = append(markers, &marker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating marker rows: %w", err)
	}

	return markers, nil
}
