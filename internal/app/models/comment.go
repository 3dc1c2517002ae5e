package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is attached to a message by id only
type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	MessageID      uuid.UUID `json:"messageId" db:"message_id"`
	Author         string    `json:"author" db:"author"`
	Text           string    `json:"text" db:"text"`
	SentimentScore float64   `json:"sentimentScore" db:"sentiment_score"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
