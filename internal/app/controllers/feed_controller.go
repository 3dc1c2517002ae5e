package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/middleware"
)

// FeedController serves message listings
type FeedController struct {
	feedService services.FeedService
}

// NewFeedController creates a new FeedController
func NewFeedController(feedService services.FeedService) *FeedController {
	return &FeedController{
		feedService: feedService,
	}
}

// GetFeed lists messages newest first, filtered by repeated ?imageLabel= parameters
func (fc *FeedController) GetFeed(ctx *gin.Context) {
	messages, err := fc.feedService.Feed(ctx.Request.Context(), ctx.QueryArray("imageLabel"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// GetUserMessages lists the messages of ?user=
func (fc *FeedController) GetUserMessages(ctx *gin.Context) {
	messages, err := fc.feedService.UserMessages(ctx.Request.Context(), ctx.Query("user"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

// GetMessage returns the message at :id
func (fc *FeedController) GetMessage(ctx *gin.Context) {
	message, err := fc.feedService.GetMessage(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, message)
}
