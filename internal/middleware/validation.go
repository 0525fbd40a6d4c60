package middleware

import (
	"bytes"
	"io"

	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RequestValidationMiddleware validates the JSON request body against schemaName
// and restores the body for the handler. An empty body is validated as {}.
func RequestValidationMiddleware(loader *SchemaLoader, schemaName string, logger *observability.Logger) gin.HandlerFunc {
	if loader == nil || !loader.Has(schemaName) {
		panic("RequestValidationMiddleware: unknown schema " + schemaName)
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	return func(c *gin.Context) {
		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation",
			attribute.String("validation.schema", schemaName),
		)
		defer span.End()

		body, err := c.GetRawData()
		if err != nil {
			appErr := contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "Unable to read request body", "")
			_ = c.Error(appErr)
			WriteError(c, appErr)
			c.Abort()
			return
		}
		doc := body
		if len(bytes.TrimSpace(doc)) == 0 {
			doc = []byte("{}")
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(doc))

		if err := loader.ValidateBytes(doc, schemaName); err != nil {
			span.SetAttributes(attribute.Bool("validation.passed", false))
			logger.Warn(ctx, "Request validation failed", map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.FullPath(),
				"schema_name": schemaName,
				"error":       err.Error(),
			})
			_ = c.Error(err)
			WriteError(c, err)
			c.Abort()
			return
		}

		span.SetAttributes(attribute.Bool("validation.passed", true))
		c.Next()
	}
}
