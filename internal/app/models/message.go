package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a user post enriched with sentiment and optional image metadata.
// The image fields are nil when no image was attached or the matching detection
// produced nothing; they are never zero-filled.
type Message struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Author         string      `json:"author" db:"author"`
	Text           string      `json:"text" db:"text"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	SentimentScore float64     `json:"sentimentScore" db:"sentiment_score"`
	ImageURL       *string     `json:"imageUrl,omitempty" db:"image_url"`
	ImageLabels    []string    `json:"imageLabels,omitempty" db:"image_labels"`
	ImageLandmark  *string     `json:"imageLandmark,omitempty" db:"image_landmark"`
	ImageLat       *float64    `json:"imageLat,omitempty" db:"image_lat"`
	ImageLong      *float64    `json:"imageLong,omitempty" db:"image_long"`
	CommentIDs     []uuid.UUID `json:"commentIds" db:"comment_ids"`
}

// HasImage reports whether an image was stored with the message
func (m *Message) HasImage() bool {
	return m.ImageURL != nil
}
