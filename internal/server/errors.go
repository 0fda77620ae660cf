package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/pixelbin/internal/auth/domain"
	imagedomain "github.com/smallbiznis/pixelbin/internal/image/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	errType, _ := classifyError(err)
	switch errType {
	case "validation_error":
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case "unauthorized":
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case "conflict":
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case "not_found":
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case "rate_limited":
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyError buckets domain errors for both the HTTP mapper and the
// request logger.
func classifyError(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, imagedomain.ErrInvalidQuery),
		errors.Is(err, imagedomain.ErrUnsupportedContentType),
		errors.Is(err, authdomain.ErrUnknownInfoKey):
		return "validation_error", "invalid_request"
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrIncorrectPassword),
		errors.Is(err, authdomain.ErrTokenMalformed),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrClaimsMissing),
		errors.Is(err, authdomain.ErrProviderExchangeFailed),
		errors.Is(err, authdomain.ErrMissingIdentityAssertion),
		errors.Is(err, authdomain.ErrInvalidAssertion):
		return "unauthorized", "unauthorized"
	case errors.Is(err, authdomain.ErrDuplicateEmail),
		errors.Is(err, authdomain.ErrDuplicateUsername):
		return "conflict", "conflict"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, imagedomain.ErrImageNotFound),
		errors.Is(err, imagedomain.ErrNotYetAvailable),
		errors.Is(err, gorm.ErrRecordNotFound):
		return "not_found", "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited", "rate_limited"
	default:
		return "internal_error", "internal_error"
	}
}

func classifyErrorForLog(err error) (string, string) {
	return classifyError(err)
}
