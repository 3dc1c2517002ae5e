package services

import (
	"context"

	"github.com/yigit/feedsphere/internal/app/models"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
)

// MarkerService defines the interface for the map view
type MarkerService interface {
	ListMarkers(ctx context.Context) ([]*models.Marker, error)
}

type markerServiceImpl struct {
	markers MarkerStore
}

// NewMarkerService creates a new MarkerService
func NewMarkerService(markers MarkerStore) MarkerService {
	return &markerServiceImpl{markers: markers}
}

func (s *markerServiceImpl) ListMarkers(ctx context.Context) ([]*models.Marker, error) {
	markers, err := s.markers.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list markers", err)
	}
	if markers == nil {
		markers = []*models.Marker{}
	}
	return markers, nil
}
