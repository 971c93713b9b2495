package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// GetContextFromGinContext extracts the context carrying the tracing span.
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

// GetRequestIDFromGinContext extracts the request ID set by the middleware.
func GetRequestIDFromGinContext(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}
