package observability

import (
	"errors"
	"time"

	contextutils "campusvoice/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddlewareWithErrorHandling returns otelgin followed by an annotator that marks the request span
// for 4xx/5xx responses, tagging it with the AppError code a handler attached via c.Error.
// Register with router.Use(...chain).
func GinMiddlewareWithErrorHandling(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{otelgin.Middleware(serviceName), errorSpanAnnotator()}
}

// errorSpanAnnotator runs inside the otelgin span, so the span is still open after c.Next returns
func errorSpanAnnotator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		statusCode := c.Writer.Status()
		if statusCode < 400 || !span.IsRecording() {
			return
		}

		severity := determineErrorSeverity(statusCode, c.Errors)
		errorMsg := "client error"
		if statusCode >= 500 {
			errorMsg = "server error"
		}

		attrs := []attribute.KeyValue{
			attribute.Int("http.status_code", statusCode),
			attribute.String("error.handler", c.HandlerName()),
			attribute.String("error.severity", severity),
		}
		if appErr := firstAppError(c.Errors); appErr != nil {
			errorMsg = appErr.Message
			attrs = append(attrs,
				attribute.String("error.code", string(appErr.Code)),
				attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
			)
		} else if len(c.Errors) > 0 {
			errorMsg = c.Errors.Last().Error()
		}
		if email := contextutils.GetAdminEmailFromContext(c.Request.Context()); email != "" {
			attrs = append(attrs, attribute.String("admin.email", email))
		}

		span.SetAttributes(attrs...)
		if statusCode >= 500 {
			span.RecordError(errors.New(errorMsg))
			span.SetStatus(codes.Error, errorMsg)
		}
	}
}

// RequestLogger logs every request with a level chosen by status code
func RequestLogger(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.FullPath(),
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if fields["http.path"] == "" {
			fields["http.path"] = c.Request.URL.Path
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		ctx := c.Request.Context()
		switch {
		case statusCode >= 500:
			logger.Error(ctx, "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(ctx, "HTTP request warning", fields)
		default:
			logger.Info(ctx, "HTTP request", fields)
		}
	}
}

func firstAppError(errs []*gin.Error) *contextutils.AppError {
	for _, err := range errs {
		var appErr *contextutils.AppError
		if errors.As(err.Err, &appErr) {
			return appErr
		}
	}
	return nil
}

// determineErrorSeverity prefers the AppError severity and falls back to the status class
func determineErrorSeverity(statusCode int, errs []*gin.Error) string {
	if appErr := firstAppError(errs); appErr != nil {
		return string(appErr.Severity)
	}

	switch {
	case statusCode >= 500:
		return string(contextutils.SeverityError)
	case statusCode >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
