package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/middleware"
)

// MarkerController serves landmark markers for the map view
type MarkerController struct {
	markerService services.MarkerService
}

// NewMarkerController creates a new MarkerController
func NewMarkerController(markerService services.MarkerService) *MarkerController {
	return &MarkerController{markerService: markerService}
}

// GetMarkers lists every marker
func (mc *MarkerController) GetMarkers(ctx *gin.Context) {
	markers, err := mc.markerService.ListMarkers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, markers)
}
