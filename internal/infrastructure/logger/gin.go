package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware writes one access line per request and places a
// request-scoped logger in the request context, where FromContext and L find
// it. Requests to skipPaths are served without an access line.
func GinMiddleware(logger *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		reqLogger := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		ctx := c.Request.Context()
		if requestID := c.GetString("request_id"); requestID != "" {
			ctx, reqLogger = WithRequestID(ctx, reqLogger, requestID)
		} else {
			ctx = WithContext(ctx, reqLogger)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if _, ok := skip[path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, zap.String("query", query))
		}
		// Authentication runs further down the chain and enriches the
		// request context it hands back.
		reqCtx := c.Request.Context()
		if userID := UserID(reqCtx); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if accountType := AccountType(reqCtx); accountType != "" {
			fields = append(fields, zap.String("account_type", accountType))
		}
		fields = append(fields, TraceFields(reqCtx)...)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		const msg = "HTTP Request"
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error(msg, fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn(msg, fields...)
		default:
			reqLogger.Info(msg, fields...)
		}
	}
}

// Recovery turns a panic into a 500 in the API error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString("request_id")
				fields := []zap.Field{
					zap.String("request_id", requestID),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				}
				logger.Error("Panic recovered", append(fields, TraceFields(c.Request.Context())...)...)

				body := gin.H{
					"code":      "INTERNAL_ERROR",
					"class":     "Internal",
					"message":   "An internal error occurred",
					"timestamp": time.Now().UTC(),
				}
				if requestID != "" {
					body["requestId"] = requestID
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": body})
			}
		}()
		c.Next()
	}
}
