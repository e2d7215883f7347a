package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "discord-giveaway-bot/internal/common/errors"
)

// RequestID attaches an id to every request for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger emits one access log line per request.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// Recovery turns panics into a generic 500 without leaking internals.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)

		log.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("panic", fmt.Sprintf("%v", recovered)).
			Str("stack", string(debug.Stack())).
			Msg("panic recovered")

		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Success:   false,
			Error:     apperrors.New(apperrors.ErrCodeInternal, "Internal server error"),
			Timestamp: time.Now(),
			RequestID: requestID,
		})
	})
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Success   bool                `json:"success"`
	Error     *apperrors.AppError `json:"error"`
	Timestamp time.Time           `json:"timestamp"`
	RequestID string              `json:"request_id"`
}

// SendError writes an AppError with the matching HTTP status.
func SendError(c *gin.Context, appErr *apperrors.AppError, log zerolog.Logger) {
	requestID := getRequestID(c)

	event := log.Info()
	if appErr.IsInternal() {
		event = log.Error()
	}
	event.
		Str("request_id", requestID).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Err(appErr.Cause).
		Msg(appErr.Message)

	c.JSON(statusForCode(appErr.Code), ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeInvalidDuration:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeGiveawayNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeAlreadyJoined, apperrors.ErrCodeNotJoined:
		return http.StatusConflict
	case apperrors.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeGiveawayEnded, apperrors.ErrCodeGiveawayFull:
		return http.StatusGone
	case apperrors.ErrCodeDiscordAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
