package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	tracecontext "tripfeed/pkg/context"
)

// HeaderRequestID 请求ID
const HeaderRequestID = "X-Request-ID"

// OTelMiddleware OpenTelemetry中间件
type OTelMiddleware struct {
	serviceName string
}

// NewOTelMiddleware 创建OpenTelemetry中间件
func NewOTelMiddleware(serviceName string) *OTelMiddleware {
	return &OTelMiddleware{serviceName: serviceName}
}

// Handlers 先由 otelgin 创建 span，再把请求信息写入 context
func (m *OTelMiddleware) Handlers() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(m.serviceName),
		m.requestContext(),
	}
}

func (m *OTelMiddleware) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = tracecontext.WithServiceName(ctx, m.serviceName)
		ctx = tracecontext.WithRequestID(ctx, c.GetHeader(HeaderRequestID))
		ctx = tracecontext.WithClientIP(ctx, c.ClientIP())
		if traceID := c.GetHeader("X-Trace-ID"); traceID != "" {
			ctx = tracecontext.WithTraceID(ctx, traceID)
		}

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.String("http.route", c.FullPath()),
				attribute.String("http.client_ip", c.ClientIP()),
			)
		}

		c.Header(HeaderRequestID, tracecontext.GetRequestID(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
