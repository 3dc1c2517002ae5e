package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/feedsphere/internal/app/models"
)

// publishWait bounds how long a publisher waits for room in the broadcast queue
const publishWait = 250 * time.Millisecond

// Publisher turns persisted records into feed events. Publishing is best-effort: a
// full queue drops the event instead of holding up the request.
type Publisher struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewPublisher creates a publisher on top of a running hub
func NewPublisher(hub *Hub, logger zerolog.Logger) *Publisher {
	return &Publisher{hub: hub, logger: logger}
}

// MessageCreated announces a new message
func (p *Publisher) MessageCreated(ctx context.Context, message *models.Message) {
	p.publish(ctx, &Event{
		Type:      EventMessageCreated,
		Author:    message.Author,
		Data:      message,
		Timestamp: time.Now().UTC(),
	})
}

// CommentCreated announces a new comment
func (p *Publisher) CommentCreated(ctx context.Context, comment *models.Comment) {
	p.publish(ctx, &Event{
		Type:      EventCommentCreated,
		Author:    comment.Author,
		Data:      comment,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event *Event) {
	timer := time.NewTimer(publishWait)
	defer timer.Stop()

	select {
	case p.hub.broadcast <- event:
	case <-ctx.Done():
		p.logger.Debug().Str("type", event.Type).Msg("Event dropped, request finished")
	case <-timer.C:
		p.logger.Warn().Str("type", event.Type).Msg("Event dropped, broadcast queue full")
	}
}
