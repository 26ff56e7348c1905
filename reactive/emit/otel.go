package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating an OpenTelemetry span per
// event.
//
// Each event becomes a span with:
//   - Span name: event.Msg (e.g., "node_tick", "turn_committed")
//   - Attributes: domainID, turnID, nodeID, and all event.Meta fields
//   - Status: error if event.Meta["error"] is set
//
// Spans are created and ended immediately (they represent a point in
// time, not a duration), which is appropriate for propagation events
// that are themselves near-instantaneous.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter using tracer (e.g.
// otel.Tracer("reactive")).
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends a span for event.
func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	o.addStandardAttributes(span, event)
	o.addMetadataAttributes(span, event.Meta)
	o.addSchedulingAttributes(span, event.Meta)

	if err, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, err)
		span.RecordError(fmt.Errorf("%s", err))
	}
}

// EmitBatch creates one span per event, in order.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)
		o.addStandardAttributes(span, event)
		o.addMetadataAttributes(span, event.Meta)
		o.addSchedulingAttributes(span, event.Meta)
		if err, ok := event.Meta["error"].(string); ok {
			span.SetStatus(codes.Error, err)
			span.RecordError(fmt.Errorf("%s", err))
		}
		span.End()
	}
	return nil
}

// Flush calls ForceFlush on the global tracer provider, if it supports
// one (the SDK provider does; the no-op provider does not).
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()

	type flusher interface {
		ForceFlush(context.Context) error
	}

	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) addStandardAttributes(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("reactive.domain_id", event.DomainID),
		attribute.Int64("reactive.turn_id", int64(event.TurnID)),
		attribute.String("reactive.node_id", event.NodeID),
	)
}

// addMetadataAttributes converts event metadata to span attributes,
// skipping the scheduling-specific keys handled by
// addSchedulingAttributes.
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	for key, value := range meta {
		if key == "level" || key == "order_key" || key == "status" {
			continue
		}
		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(key, v))
		case int:
			span.SetAttributes(attribute.Int(key, v))
		case int64:
			span.SetAttributes(attribute.Int64(key, v))
		case float64:
			span.SetAttributes(attribute.Float64(key, v))
		case bool:
			span.SetAttributes(attribute.Bool(key, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(key, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
		}
	}
}

// addSchedulingAttributes adds the engine's own ordering attributes:
// level (ascending propagation level) and order_key (stable
// within-level rank), plus status when set. These let a trace backend
// reconstruct the sequential-engine-equivalent order a parallel run
// actually followed.
func (o *OTelEmitter) addSchedulingAttributes(span trace.Span, meta map[string]interface{}) {
	if lvl, ok := meta["level"].(int); ok {
		span.SetAttributes(attribute.Int("reactive.level", lvl))
	}
	if orderKey, ok := meta["order_key"].(string); ok {
		span.SetAttributes(attribute.String("reactive.order_key", orderKey))
	}
	if status, ok := meta["status"].(string); ok {
		span.SetAttributes(attribute.String("reactive.status", status))
	}
}
