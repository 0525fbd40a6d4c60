package handlers

import (
	"errors"
	"fmt"

	"campusvoice/internal/middleware"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
)

// HandleAppError records err on the gin context and sends the mapped HTTP response
func HandleAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	middleware.WriteError(c, err)
}

// HandleValidationError handles input validation errors consistently
func HandleValidationError(c *gin.Context, field string, value interface{}, reason string) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		fmt.Sprintf("Invalid %s", field),
		fmt.Sprintf("Value '%v' is invalid: %s", value, reason),
	)

	HandleAppError(c, appErr)
}

// complaintNotFound replaces a store miss with the public message
func complaintNotFound(err error) error {
	if errors.Is(err, contextutils.ErrRecordNotFound) {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRecordNotFound, contextutils.SeverityInfo, "Complaint not found", "", err)
	}
	return err
}
