package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/middleware"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/filestorage"
)

// Form fields of a message submission
const (
	messageTextField  = "message"
	messageImageField = "image"
)

// Pages configures where browser submissions are redirected
type Pages struct {
	LoginPage string
	UserPage  string
}

// MessageController handles message submissions
type MessageController struct {
	messageService services.MessageService
	store          filestorage.ObjectStore
	pages          Pages
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewMessageController creates a new MessageController
func NewMessageController(
	messageService services.MessageService,
	store filestorage.ObjectStore,
	pages Pages,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *MessageController {
	return &MessageController{
		messageService: messageService,
		store:          store,
		pages:          pages,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// CreateMessage accepts a multipart form with the raw text in "message" and an optional
// "image" file. Browsers get a 303 to the author's page; JSON clients get 201 and the message.
func (mc *MessageController) CreateMessage(ctx *gin.Context) {
	author := middleware.Identity(ctx)
	if author == "" {
		if wantsJSON(ctx) {
			middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
			return
		}
		ctx.Redirect(http.StatusSeeOther, mc.pages.LoginPage)
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, mc.maxUploadBytes)

	fileHeader, err := ctx.FormFile(messageImageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			middleware.HandleAPIError(ctx, apperrors.ErrUploadTooLarge)
			return
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			fileHeader = nil
		default:
			middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Malformed message form"))
			return
		}
	}

	upload, err := mc.store.ResolveUpload(fileHeader)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewStorageError("store upload", err))
		return
	}

	input := services.CreateMessageInput{
		Text:   ctx.PostForm(messageTextField),
		Upload: upload,
	}

	message, err := mc.messageService.CreateMessage(ctx.Request.Context(), author, input)
	if err != nil {
		mc.discardUpload(upload)
		middleware.HandleAPIError(ctx, err)
		return
	}

	if wantsJSON(ctx) {
		ctx.JSON(http.StatusCreated, message)
		return
	}
	ctx.Redirect(http.StatusSeeOther, mc.pages.UserPage+"?user="+url.QueryEscape(author))
}

// discardUpload removes a blob stored for a message that was never persisted
func (mc *MessageController) discardUpload(upload filestorage.Upload) {
	ref, ok := upload.Stored()
	if !ok {
		return
	}
	if err := mc.store.Delete(ref); err != nil {
		mc.logger.Warn().Err(err).Str("ref", string(ref)).Msg("Failed to discard upload of rejected message")
	}
}

func wantsJSON(ctx *gin.Context) bool {
	return strings.Contains(ctx.GetHeader("Accept"), "application/json")
}
