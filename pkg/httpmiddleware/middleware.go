// Package httpmiddleware contains the gin middleware chain of the storefront
// API and the otelhttp wrapper around the engine.
package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InjectLogger stores lg in the request context so handlers and services can
// log with zctx.From.
func InjectLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(zctx.Base(c.Request.Context(), lg))
		c.Next()
	}
}

// Instrument wraps h with otelhttp using the given providers. Span names are
// "METHOD path" until Labeler attaches the matched route.
func Instrument(service string, h http.Handler, tp trace.TracerProvider, mp metric.MeterProvider) http.Handler {
	return otelhttp.NewHandler(h, service,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Labeler adds the matched gin route to the otelhttp metric labels and renames
// the active span after it.
func Labeler() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route != "" {
			attr := attribute.String("http.route", route)
			if l, ok := otelhttp.LabelerFromContext(c.Request.Context()); ok {
				l.Add(attr)
			}
			span := trace.SpanFromContext(c.Request.Context())
			span.SetName(c.Request.Method + " " + route)
			span.SetAttributes(attr)
		}
		c.Next()
	}
}

// LogRequests logs every request once it is served. The request id comes
// from the context logger set up by RequestID.
func LogRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		lg := zctx.From(c.Request.Context())
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			lg.Error("Request", fields...)
		default:
			lg.Info("Request", fields...)
		}
	}
}
