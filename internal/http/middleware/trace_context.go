package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/treatmentplan-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext echoes (or mints) X-Request-Id and X-Trace-Id. The trace
// id prefers the caller's header, then the active otel span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := &ctxutil.TraceData{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			TraceID:   strings.TrimSpace(c.GetHeader(headerTraceID)),
		}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); td.TraceID == "" && sc.HasTraceID() {
			td.TraceID = sc.TraceID().String()
		}
		if td.TraceID == "" {
			td.TraceID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Header(headerTraceID, td.TraceID)
		c.Header(headerRequestID, td.RequestID)
		c.Next()
	}
}
