package scan

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// contextWithSpan carries the span of from into ctx.
func contextWithSpan(ctx, from context.Context) context.Context {
	if sc := trace.SpanContextFromContext(from); sc.IsValid() {
		return trace.ContextWithSpanContext(ctx, sc)
	}
	return ctx
}
