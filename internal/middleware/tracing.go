package middleware

import (
	"context"
	"errors"
	"fmt"

	"yatube/internal/models"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route pattern (GET /profile/:username) once routing is done,
// so one span name covers every author page.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Continue an upstream trace when the proxy sent one
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method(), c.Path()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
				attribute.String("http.url", c.OriginalURL()),
				attribute.String("http.ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		ctx = context.WithValue(ctx, TraceIDKey, traceID)

		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		if route, ok := matchedRoute(c); ok {
			span.SetName(fmt.Sprintf("%s %s", c.Method(), route))
			span.SetAttributes(attribute.String("http.route", route))
		}

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; the status comes from the error.
			status = errorStatus(err)
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}

		// Session auth runs after this middleware, so the viewer is known only now.
		if userID := CurrentUserID(c); userID != 0 {
			span.SetAttributes(attribute.Int64("user.id", int64(userID)))
		}

		return err
	}
}

// matchedRoute reports the pattern of the handler that served the request.
// Unmatched paths only ever reach the global middleware mounted on "/".
func matchedRoute(c *fiber.Ctx) (string, bool) {
	route := c.Route()
	if route == nil || route.Path == "" {
		return "", false
	}
	if route.Path == "/" && c.Path() != "/" {
		return "", false
	}
	return route.Path, true
}

// errorStatus mirrors the status the error handler will send for err.
func errorStatus(err error) int {
	var fe *fiber.Error
	var appErr *models.AppError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &appErr):
		return appErr.Status()
	}
	return fiber.StatusInternalServerError
}
