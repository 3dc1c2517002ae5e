// Package vision detects labels and landmarks in images through an external
// image analysis service.
package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/yigit/feedsphere/internal/config"
	"github.com/yigit/feedsphere/internal/pkg/resilience"
)

// Kind selects what the analyzer looks for
type Kind string

const (
	KindLabel    Kind = "LABEL_DETECTION"
	KindLandmark Kind = "LANDMARK_DETECTION"
)

// LatLng is a coordinate pair in degrees
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Annotation is a single detection result
type Annotation struct {
	Description string
	Score       float64
	Locations   []LatLng
}

// Status distinguishes a failed detection from a successful one that found nothing
type Status int

const (
	DetectionFailed Status = iota
	DetectionSucceeded
)

// Detection is the outcome of one analyzer call. Annotations is meaningful only
// when Status is DetectionSucceeded and may be empty.
type Detection struct {
	Status      Status
	Annotations []Annotation
	Err         error
}

// Succeeded builds a successful detection
func Succeeded(annotations []Annotation) Detection {
	return Detection{Status: DetectionSucceeded, Annotations: annotations}
}

// Failed builds a failed detection
func Failed(err error) Detection {
	return Detection{Status: DetectionFailed, Err: err}
}

// OK reports whether the detection succeeded
func (d Detection) OK() bool {
	return d.Status == DetectionSucceeded
}

// Analyzer runs one kind of detection over image bytes. It never returns an error:
// failures are reported as a DetectionFailed result.
type Analyzer interface {
	Detect(ctx context.Context, image []byte, kind Kind) Detection
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content []byte `json:"content"`
}

type feature struct {
	Type Kind `json:"type"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	LabelAnnotations    []entityAnnotation `json:"labelAnnotations"`
	LandmarkAnnotations []entityAnnotation `json:"landmarkAnnotations"`
	Error               *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type entityAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Locations   []struct {
		LatLng *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"latLng"`
	} `json:"locations"`
}

// Client is an Analyzer backed by the Cloud Vision images:annotate REST method
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	policy     *resilience.Policy
	logger     zerolog.Logger
}

var _ Analyzer = (*Client)(nil)

// NewClient creates a vision client from its collaborator configuration
func NewClient(cfg config.CollaboratorConfig, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		policy:     resilience.NewPolicy("vision", cfg, logger),
		logger:     logger,
	}
}

// Detect annotates one image with a single feature
func (c *Client) Detect(ctx context.Context, image []byte, kind Kind) Detection {
	payload := annotateRequest{
		Requests: []imageRequest{{
			Image:    imageContent{Content: image},
			Features: []feature{{Type: kind}},
		}},
	}

	body, err := c.policy.Do(ctx, func(ctx context.Context) ([]byte, error) {
		return resilience.PostJSON(ctx, c.httpClient, c.endpoint, c.apiKey, payload)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Image analysis request failed")
		return Failed(fmt.Errorf("image analysis request failed: %w", err))
	}

	detection := decode(body, kind)
	if !detection.OK() {
		c.logger.Warn().Err(detection.Err).Str("kind", string(kind)).Msg("Error getting image analysis")
	}
	return detection
}

func decode(body []byte, kind Kind) Detection {
	var resp annotateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Failed(fmt.Errorf("failed to decode image analysis response: %w", err))
	}
	if len(resp.Responses) == 0 {
		return Failed(errors.New("image analysis returned no responses"))
	}

	first := resp.Responses[0]
	if first.Error != nil {
		return Failed(fmt.Errorf("image analysis error %d: %s", first.Error.Code, first.Error.Message))
	}

	raw := first.LabelAnnotations
	if kind == KindLandmark {
		raw = first.LandmarkAnnotations
	}

	annotations := make([]Annotation, 0, len(raw))
	for _, a := range raw {
		annotation := Annotation{Description: a.Description, Score: a.Score}
		for _, loc := range a.Locations {
			if loc.LatLng != nil {
				annotation.Locations = append(annotation.Locations, LatLng{
					Latitude:  loc.LatLng.Latitude,
					Longitude: loc.LatLng.Longitude,
				})
			}
		}
		annotations = append(annotations, annotation)
	}

	return Succeeded(annotations)
}
