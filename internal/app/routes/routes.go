package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yigit/feedsphere/internal/app/controllers"
	"github.com/yigit/feedsphere/internal/app/models/dto"
	"github.com/yigit/feedsphere/internal/middleware"
	"github.com/yigit/feedsphere/internal/pkg/websocket"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Message  *controllers.MessageController
	Comment  *controllers.CommentController
	Feed     *controllers.FeedController
	Marker   *controllers.MarkerController
	LiveFeed *websocket.Handler
}

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

const serviceName = "feedsphere"

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware, database HealthChecker) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.StatusResponse{Status: "ok", Service: serviceName})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version group
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.OptionalAuth())

	// Read routes are public
	v1.GET("/feed", ctrl.Feed.GetFeed)
	v1.GET("/user-messages", ctrl.Feed.GetUserMessages)
	v1.GET("/messages/:id", ctrl.Feed.GetMessage)
	v1.GET("/comments", ctrl.Comment.GetComments)
	v1.GET("/markers", ctrl.Marker.GetMarkers)

	// Write routes resolve the caller themselves so browsers can be redirected to login
	v1.POST("/messages", ctrl.Message.CreateMessage)
	v1.POST("/comments", ctrl.Comment.CreateComment)

	// Readiness: the feed is useless without its document store
	v1.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.StatusResponse{Status: "unavailable", Service: serviceName, Error: "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, dto.StatusResponse{Status: "ok", Service: serviceName})
	})

	if ctrl.LiveFeed != nil {
		v1.GET("/feed/ws", ctrl.LiveFeed.HandleConnection)
		v1.GET("/feed/live-clients", ctrl.LiveFeed.ClientCount)
	}
}
