package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/feedsphere/internal/app/models/dto"
	"github.com/yigit/feedsphere/internal/pkg/apperrors"
	"github.com/yigit/feedsphere/internal/pkg/logger"
)

// HandleAPIError maps an application error onto a status code and the standard error envelope.
// Collaborator and storage details are logged, never returned.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := classifyError(err)

	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Int("status", status).
		Str("path", c.Request.URL.Path).
		Str("requestID", c.GetString(ContextKeyRequestID)).
		Msg("Request failed")

	response := dto.NewErrorResponse(detail)
	response.RequestID = c.GetString(ContextKeyRequestID)
	c.AbortWithStatusJSON(status, response)
}

func classifyError(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Please log in!")

	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")

	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, apperrors.ErrUploadTooLarge.Error())

	case apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, publicMessage(err, "Validation failed"))

	case apperrors.Is(err, apperrors.ErrMessageNotFound, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, publicMessage(err, "Resource not found"))

	case errors.Is(err, apperrors.ErrRequiredStage):
		return http.StatusBadGateway, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Enrichment failed, please try again later")

	case errors.Is(err, apperrors.ErrStorage):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Internal server error")

	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

// publicMessage returns the message of a client-facing CustomError, or fallback
func publicMessage(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" && custom.Cause == nil {
		return custom.Message
	}
	return fallback
}
