package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPMeterName is the instrumentation scope for the status API
	HTTPMeterName = MeterName + "/http"
	// TracerName is the tracer used for status API requests
	TracerName = MeterName + "/http"

	unknownRoute = "unknown_route"
)

// HTTPMetrics records request instruments for the status API.
// A nil *HTTPMetrics passes requests through untouched.
type HTTPMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// NewHTTPMetrics creates the HTTP instruments. A nil provider yields nil.
func NewHTTPMetrics(mp metric.MeterProvider) (*HTTPMetrics, error) {
	if mp == nil {
		return nil, nil
	}
	meter := mp.Meter(HTTPMeterName)

	duration, err := meter.Float64Histogram(
		"lhs_http_request_duration_seconds",
		metric.WithDescription("Duration of status API requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter(
		"lhs_http_requests_total",
		metric.WithDescription("Status API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{duration: duration, requests: requests}, nil
}

// Middleware records duration and count per chi route pattern
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		m.requests.Add(ctx, 1, attrs)
	})
}

// TracingMiddleware starts a server span per request. A nil provider passes through.
// Incoming trace context is extracted with the global propagator.
func TracingMiddleware(tp trace.TracerProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tp == nil {
			return next
		}
		tracer := tp.Tracer(TracerName)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// The route pattern is only known after chi has routed the request.
			route := routePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRoute(route),
				semconv.HTTPResponseStatusCode(ww.Status()),
			)
			if ww.Status() >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(ww.Status()))
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}
