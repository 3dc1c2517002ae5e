package models

import (
	"time"

	"github.com/google/uuid"
)

// Marker is a map pin derived from a detected landmark. It has no link back to the
// message it came from.
type Marker struct {
	ID        uuid.UUID `json:"-" db:"id"`
	Lat       float64   `json:"lat" db:"lat"`
	Lng       float64   `json:"lng" db:"lng"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}
