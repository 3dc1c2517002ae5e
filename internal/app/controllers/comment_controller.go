package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/feedsphere/internal/app/models/dto"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/middleware"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
)

// CommentController handles comment operations
type CommentController struct {
	commentService services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService services.CommentService) *CommentController {
	return &CommentController{
		commentService: commentService,
	}
}

// CreateComment attaches a comment to a message
func (cc *CommentController) CreateComment(ctx *gin.Context) {
	author := middleware.Identity(ctx)
	if author == "" {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return
	}

	var req dto.CreateCommentRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	// Format was checked by the uuid validation tag
	messageID := uuid.MustParse(req.MessageID)

	comment, err := cc.commentService.AddComment(ctx.Request.Context(), author, messageID, req.UserText)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

// GetComments lists the comments of ?messageId= as a JSON array
func (cc *CommentController) GetComments(ctx *gin.Context) {
	comments, err := cc.commentService.ListComments(ctx.Request.Context(), ctx.Query("messageId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, comments)
}
