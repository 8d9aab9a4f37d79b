// Package otel holds the span helpers used by the sync pipeline.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

// Span attribute keys
const (
	AttrAccount        = attribute.Key("lhs.account")
	AttrConnectionName = attribute.Key("lhs.connection.name")
	AttrForwardedCount = attribute.Key("lhs.forwarded.count")
	AttrCandidateCount = attribute.Key("lhs.candidate.count")
	AttrHistoryCount   = attribute.Key("lhs.history.count")
	AttrErrorKind      = attribute.Key("lhs.error.kind")
)

// Error kinds reported on failed spans
const (
	KindTermsRequired = "terms_required"
	KindTokenExpired  = "token_expired"
	KindAuth          = "authentication"
	KindNetwork       = "network"
	KindDecoding      = "decoding"
	KindNoData        = "no_data"
	KindResponse      = "invalid_response"
	KindCanceled      = "canceled"
	KindOther         = "other"
)

// StartSpan starts a span on tracer. A nil tracer yields the span already
// in ctx, which is a no-op span when tracing is off.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// ErrorKind maps err onto one of the Kind constants
func ErrorKind(err error) string {
	var (
		authErr   *llu.AuthenticationError
		netErr    *llu.NetworkError
		decodeErr *llu.DecodingError
	)
	switch {
	case errors.Is(err, llu.ErrTermsRequired):
		return KindTermsRequired
	case errors.As(err, &authErr):
		if authErr.TokenExpired {
			return KindTokenExpired
		}
		return KindAuth
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &decodeErr):
		return KindDecoding
	case errors.Is(err, llu.ErrNoData):
		return KindNoData
	case errors.Is(err, llu.ErrInvalidResponse):
		return KindResponse
	default:
		return KindOther
	}
}

// RecordError marks span failed. The status carries only the error kind so
// tokens or account details in the message stay in the span event.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	kind := ErrorKind(err)
	span.RecordError(err)
	span.SetAttributes(AttrErrorKind.String(kind))
	span.SetStatus(codes.Error, kind)
}
