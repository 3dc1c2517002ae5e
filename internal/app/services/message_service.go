package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/filestorage"
	"github.com/yigit/feedsphere/internal/pkg/metrics"
	"github.com/yigit/feedsphere/internal/pkg/sanitizer"
	"github.com/yigit/feedsphere/internal/pkg/sentiment"
	"github.com/yigit/feedsphere/internal/pkg/vision"
	"golang.org/x/sync/errgroup"
)

// Ingestion stage names used in metrics and logs
const (
	stageValidate  = "validate"
	stageSanitize  = "sanitize"
	stageBlob      = "blob"
	stageLabels    = "labels"
	stageLandmark  = "landmark"
	stageSentiment = "sentiment"
	stagePersist   = "persist"
	stageMarker    = "marker"
)

// CreateMessageInput is a message submission read once at the request boundary
type CreateMessageInput struct {
	// Text is the raw, unsanitized user text
	Text   string
	Upload filestorage.Upload
}

// MessageService defines the interface for message ingestion
type MessageService interface {
	CreateMessage(ctx context.Context, author string, input CreateMessageInput) (*models.Message, error)
}

// messageServiceImpl implements MessageService
type messageServiceImpl struct {
	messages  MessageStore
	markers   MarkerStore
	blobs     BlobFetcher
	urls      URLResolver
	scorer    sentiment.Scorer
	analyzer  vision.Analyzer
	publisher FeedPublisher
	logger    zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messages MessageStore,
	markers MarkerStore,
	blobs BlobFetcher,
	urls URLResolver,
	scorer sentiment.Scorer,
	analyzer vision.Analyzer,
	publisher FeedPublisher,
	logger zerolog.Logger,
) MessageService {
	return &messageServiceImpl{
		messages:  messages,
		markers:   markers,
		blobs:     blobs,
		urls:      urls,
		scorer:    scorer,
		analyzer:  analyzer,
		publisher: publisherOrNoop(publisher),
		logger:    logger,
	}
}

// imageEnrichment collects what the image branch found
type imageEnrichment struct {
	labels   []string
	landmark *string
	location *vision.LatLng
}

// CreateMessage validates, enriches and persists a new message. Image analysis failures
// degrade the message; sentiment and storage failures abort it with nothing written.
func (s *messageServiceImpl) CreateMessage(ctx context.Context, author string, input CreateMessageInput) (*models.Message, error) {
	start := time.Now()
	message, err := s.createMessage(ctx, author, input)
	metrics.RecordIngest("message", err, time.Since(start))
	return message, err
}

func (s *messageServiceImpl) createMessage(ctx context.Context, author string, input CreateMessageInput) (*models.Message, error) {
	if strings.TrimSpace(author) == "" {
		metrics.RecordStage(stageValidate, metrics.OutcomeFailure)
		return nil, apperrors.ErrUnauthenticated
	}
	metrics.RecordStage(stageValidate, metrics.OutcomeSuccess)

	log := s.logger.With().Str("author", author).Logger()

	message := &models.Message{
		Author:     author,
		Text:       sanitizer.Sanitize(input.Text),
		CommentIDs: []uuid.UUID{},
	}
	metrics.RecordStage(stageSanitize, metrics.OutcomeSuccess)

	var image []byte
	ref, hasImage := input.Upload.Stored()
	if hasImage {
		url, err := s.urls.ServingURL(ref)
		if err != nil {
			metrics.RecordStage(stageBlob, metrics.OutcomeFailure)
			return nil, apperrors.NewStorageError("resolve serving url", err)
		}

		image, err = s.blobs.Fetch(ctx, ref)
		if err != nil {
			metrics.RecordStage(stageBlob, metrics.OutcomeFailure)
			return nil, apperrors.NewStorageError("fetch image", err)
		}

		message.ImageURL = &url
		metrics.RecordStage(stageBlob, metrics.OutcomeSuccess)
	} else {
		metrics.RecordStage(stageBlob, metrics.OutcomeSkipped)
	}

	// Label, landmark and sentiment calls are independent; only sentiment may fail the group
	var enrichment imageEnrichment
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		score, err := s.scorer.Score(gctx, input.Text)
		if err != nil {
			metrics.RecordStage(stageSentiment, metrics.OutcomeFailure)
			log.Error().Err(err).Msg("Sentiment scoring failed")
			return apperrors.NewRequiredStageError(stageSentiment, err)
		}
		message.SentimentScore = score
		metrics.RecordStage(stageSentiment, metrics.OutcomeSuccess)
		return nil
	})

	if hasImage {
		g.Go(func() error {
			detection := s.analyzer.Detect(gctx, image, vision.KindLabel)
			enrichment.labels = labelsFrom(detection)
			recordDetection(stageLabels, detection, log)
			return nil
		})

		g.Go(func() error {
			detection := s.analyzer.Detect(gctx, image, vision.KindLandmark)
			enrichment.landmark, enrichment.location = landmarkFrom(detection)
			recordDetection(stageLandmark, detection, log)
			return nil
		})
	} else {
		metrics.RecordStage(stageLabels, metrics.OutcomeSkipped)
		metrics.RecordStage(stageLandmark, metrics.OutcomeSkipped)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	message.ID = uuid.New()
	message.CreatedAt = time.Now().UTC()
	message.ImageLabels = enrichment.labels
	message.ImageLandmark = enrichment.landmark
	if enrichment.location != nil {
		message.ImageLat = &enrichment.location.Latitude
		message.ImageLong = &enrichment.location.Longitude
	}

	if err := s.messages.Create(ctx, message); err != nil {
		metrics.RecordStage(stagePersist, metrics.OutcomeFailure)
		log.Error().Err(err).Str("messageID", message.ID.String()).Msg("Failed to persist message")
		return nil, apperrors.NewStorageError("persist message", err)
	}
	metrics.RecordStage(stagePersist, metrics.OutcomeSuccess)

	// The marker is written only after the message and never rolls it back
	if enrichment.landmark != nil && enrichment.location != nil {
		s.createMarker(ctx, *enrichment.landmark, *enrichment.location, log)
	} else {
		metrics.RecordStage(stageMarker, metrics.OutcomeSkipped)
	}

	s.publisher.MessageCreated(ctx, message)

	log.Info().
		Str("messageID", message.ID.String()).
		Bool("image", hasImage).
		Int("labels", len(message.ImageLabels)).
		Bool("landmark", message.ImageLandmark != nil).
		Msg("Message created")

	return message, nil
}

func (s *messageServiceImpl) createMarker(ctx context.Context, name string, location vision.LatLng, log zerolog.Logger) {
	marker := &models.Marker{
		ID:        uuid.New(),
		Lat:       location.Latitude,
		Lng:       location.Longitude,
		Content:   name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.markers.Create(ctx, marker); err != nil {
		metrics.RecordStage(stageMarker, metrics.OutcomeDegraded)
		log.Warn().Err(err).Str("landmark", name).Msg("Failed to persist landmark marker")
		return
	}
	metrics.RecordStage(stageMarker, metrics.OutcomeSuccess)
}

// labelsFrom keeps label descriptions in returned order; no labels and failure both yield nil
func labelsFrom(detection vision.Detection) []string {
	if !detection.OK() || len(detection.Annotations) == 0 {
		return nil
	}

	labels := make([]string, 0, len(detection.Annotations))
	for _, annotation := range detection.Annotations {
		labels = append(labels, annotation.Description)
	}
	return labels
}

// landmarkFrom takes the first landmark only, with its first location if it has one
func landmarkFrom(detection vision.Detection) (*string, *vision.LatLng) {
	if !detection.OK() || len(detection.Annotations) == 0 {
		return nil, nil
	}

	first := detection.Annotations[0]
	name := first.Description
	if len(first.Locations) == 0 {
		return &name, nil
	}

	location := first.Locations[0]
	return &name, &location
}

func recordDetection(stage string, detection vision.Detection, log zerolog.Logger) {
	switch {
	case !detection.OK():
		metrics.RecordStage(stage, metrics.OutcomeDegraded)
		log.Warn().Err(detection.Err).Str("stage", stage).Msg("Image analysis degraded")
	case len(detection.Annotations) == 0:
		metrics.RecordStage(stage, metrics.OutcomeSkipped)
	default:
		metrics.RecordStage(stage, metrics.OutcomeSuccess)
	}
}
