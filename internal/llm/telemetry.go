package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/studyhall-ai/studyhall/internal/llm"

// startSpan opens a span for one provider request. Spans are no-ops unless a
// global tracer provider was registered at startup.
func startSpan(ctx context.Context, provider string, operation string, model string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "llm."+operation,
		trace.WithAttributes(
			attribute.String("llm.provider", provider),
			attribute.String("llm.model", model),
		),
	)
	return ctx, span
}

// endSpan records the outcome and closes the span.
func endSpan(span trace.Span, outputTokens int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("llm.output_tokens", outputTokens))
	}
	span.End()
}
