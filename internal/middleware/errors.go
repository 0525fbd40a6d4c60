package middleware

import (
	"errors"
	"net/http"

	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
)

// StatusForCode maps AppError codes to HTTP status codes
func StatusForCode(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidStatus, contextutils.ErrorCodeValidationFailed,
		contextutils.ErrorCodeOAuthStateMismatch, contextutils.ErrorCodeOAuthProviderError:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeSessionExpired:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRecordExists:
		return http.StatusConflict

	// 5xx Server Errors
	case contextutils.ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as a JSON error body.
// 5xx responses never expose the underlying message.
func WriteError(c *gin.Context, err error) {
	var appErr *contextutils.AppError
	if !errors.As(err, &appErr) {
		appErr = contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInternalError, contextutils.SeverityError,
			"Internal server error", "", err)
	}

	status := StatusForCode(appErr.Code)
	switch {
	case status == http.StatusServiceUnavailable:
		c.JSON(status, gin.H{
			"error": "Service temporarily unavailable",
			"code":  string(contextutils.ErrorCodeServiceUnavailable),
		})
	case status >= http.StatusInternalServerError:
		c.JSON(status, gin.H{
			"error": "Internal server error",
			"code":  string(contextutils.ErrorCodeInternalError),
		})
	default:
		c.JSON(status, appErr.ToJSON())
	}
}
