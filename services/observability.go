package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rpupo63/portfolio-cms/services"

var tracer = otel.Tracer(instrumentationName)

// Metrics holds the instruments recorded by the content services
type Metrics struct {
	PostSaves          metric.Int64Counter
	RevisionsPruned    metric.Int64Counter
	ValidationFailures metric.Int64Counter
}

// newMetrics creates the instruments on the global meter provider. They are
// no-ops until an SDK is installed.
func newMetrics() Metrics {
	meter := otel.Meter(instrumentationName)

	postSaves, _ := meter.Int64Counter("cms.post.saves",
		metric.WithDescription("Posts written by the upsert pipeline"),
		metric.WithUnit("{post}"),
	)
	revisionsPruned, _ := meter.Int64Counter("cms.revision.pruned",
		metric.WithDescription("Revisions evicted beyond the retention limit"),
		metric.WithUnit("{revision}"),
	)
	validationFailures, _ := meter.Int64Counter("cms.validation.failures",
		metric.WithDescription("Payloads rejected by validation"),
		metric.WithUnit("{payload}"),
	)

	return Metrics{
		PostSaves:          postSaves,
		RevisionsPruned:    revisionsPruned,
		ValidationFailures: validationFailures,
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
