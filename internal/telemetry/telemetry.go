// Package telemetry provides the OpenTelemetry-backed Metrics/Tracer
// abstraction used alongside internal/obs's Logger: where internal/obs
// answers "what happened," this package answers "how long did it take and
// how often." The two are kept separate because a deployment may want OTEL
// wired to a collector while logging stays local, or vice versa.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Metrics exposes counter/timer/gauge helpers for process-wide
// instrumentation. This is the complement to the evaluation-local
// metrics.Recorder (C5): Metrics answers "how is this process behaving,"
// the Recorder answers "how did this evaluation run behave."
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so call sites stay agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}
