// Package observability traces parse jobs with OpenTelemetry, one span per phase.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/chunkframe"

// Span wraps a trace span and batches its attributes until End
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End records err as the span status and ends the span
func (s *Span) End(err error) time.Duration {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
	return time.Since(s.startTime)
}

// JobTracer starts the spans of one parse job
type JobTracer struct {
	jobID  string
	tracer trace.Tracer
}

// NewJobTracer uses tp, or the global provider when tp is nil. With tracing
// disabled the global provider is a no-op.
func NewJobTracer(jobID string, tp trace.TracerProvider) *JobTracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &JobTracer{
		jobID:  jobID,
		tracer: tp.Tracer(instrumentationName),
	}
}

// StartJob starts the root span of the job
func (jt *JobTracer) StartJob(ctx context.Context) (context.Context, *Span) {
	return jt.start(ctx, "chunkframe.parse")
}

// StartPhase starts a child span named after the phase
func (jt *JobTracer) StartPhase(ctx context.Context, phase string) (context.Context, *Span) {
	ctx, span := jt.start(ctx, "chunkframe."+phase)
	span.SetAttribute("phase", phase)
	return ctx, span
}

func (jt *JobTracer) start(ctx context.Context, name string) (context.Context, *Span) {
	ctx, span := jt.tracer.Start(ctx, name)
	s := &Span{span: span, startTime: time.Now()}
	s.SetAttribute("job.id", jt.jobID)
	return ctx, s
}

// TracePhase runs fn inside a phase span
func (jt *JobTracer) TracePhase(ctx context.Context, phase string, fn func(context.Context) error) error {
	ctx, span := jt.StartPhase(ctx, phase)
	err := fn(ctx)
	span.End(err)
	return err
}
