package emit

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestOTelEmitter_Emit verifies single event emission creates spans.
func TestOTelEmitter_Emit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "node_tick",
		Meta: map[string]interface{}{
			"kind":   "signal",
			"tokens": 150,
		},
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]

	if span.Name != "node_tick" {
		t.Errorf("span name = %q, want %q", span.Name, "node_tick")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["reactive.domain_id"]; got != "domain-001" {
		t.Errorf("domain_id = %v, want %q", got, "domain-001")
	}
	if got := attrs["reactive.turn_id"]; got != int64(1) {
		t.Errorf("turn_id = %v, want %d", got, 1)
	}
	if got := attrs["reactive.node_id"]; got != "n0.0" {
		t.Errorf("node_id = %v, want %q", got, "n0.0")
	}

	if got := attrs["kind"]; got != "signal" {
		t.Errorf("kind = %v, want %q", got, "signal")
	}
	if got := attrs["tokens"]; got != int64(150) {
		t.Errorf("tokens = %v, want %d", got, 150)
	}

	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

// TestOTelEmitter_EmitWithError verifies error events set error status.
func TestOTelEmitter_EmitWithError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "callback_failed",
		Meta: map[string]interface{}{
			"error": "validation failed",
		},
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]

	if span.Status.Code != codes.Error {
		t.Errorf("status code = %v, want %v", span.Status.Code, codes.Error)
	}
	if span.Status.Description != "validation failed" {
		t.Errorf("status description = %q, want %q", span.Status.Description, "validation failed")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["error"]; got != "validation failed" {
		t.Errorf("error = %v, want %q", got, "validation failed")
	}

	if len(span.Events) == 0 {
		t.Error("expected error event, got none")
	}
}

// TestOTelEmitter_EmitBatch verifies batch emission creates multiple spans.
func TestOTelEmitter_EmitBatch(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	events := []Event{
		{DomainID: "domain-001", TurnID: 1, NodeID: "n0.0", Msg: "node_tick"},
		{DomainID: "domain-001", TurnID: 1, NodeID: "n0.0", Msg: "turn_committed"},
		{DomainID: "domain-001", TurnID: 2, NodeID: "n1.0", Msg: "node_tick"},
	}

	ctx := context.Background()
	if err := emitter.EmitBatch(ctx, events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	expectedNames := []string{"node_tick", "turn_committed", "node_tick"}
	for i, span := range spans {
		if span.Name != expectedNames[i] {
			t.Errorf("span[%d] name = %q, want %q", i, span.Name, expectedNames[i])
		}
	}

	for i, span := range spans {
		if !span.EndTime.After(span.StartTime) {
			t.Errorf("span[%d] was not ended", i)
		}
	}
}

// TestOTelEmitter_EmitBatch_Empty verifies empty batch is handled.
func TestOTelEmitter_EmitBatch_Empty(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	ctx := context.Background()
	if err := emitter.EmitBatch(ctx, []Event{}); err != nil {
		t.Fatalf("EmitBatch failed on empty batch: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 0 {
		t.Errorf("expected 0 spans for empty batch, got %d", len(spans))
	}
}

// TestOTelEmitter_Flush verifies flush forces span export.
func TestOTelEmitter_Flush(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "node_tick",
	}
	emitter.Emit(event)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := emitter.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Errorf("expected 1 span after flush, got %d", len(spans))
	}
}

// TestOTelEmitter_Flush_Timeout verifies flush respects context timeout.
func TestOTelEmitter_Flush_Timeout(_ *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emitter.Flush(ctx)
	_ = err
}

// TestOTelEmitter_SchedulingAttributes verifies scheduling attributes are added.
func TestOTelEmitter_SchedulingAttributes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "node_tick",
		Meta: map[string]interface{}{
			"level":     2,
			"order_key": "n0.0",
			"status":    "changed",
		},
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	attrs := attributeMap(span.Attributes)

	if got := attrs["reactive.level"]; got != int64(2) {
		t.Errorf("level = %v, want %d", got, 2)
	}
	if got := attrs["reactive.order_key"]; got != "n0.0" {
		t.Errorf("order_key = %v, want %q", got, "n0.0")
	}
	if got := attrs["reactive.status"]; got != "changed" {
		t.Errorf("status = %v, want %q", got, "changed")
	}
}

// TestOTelEmitter_SchedulingAttributes_Missing verifies missing attributes don't cause errors.
func TestOTelEmitter_SchedulingAttributes_Missing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "node_tick",
		Meta:     map[string]interface{}{},
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	attrs := attributeMap(span.Attributes)

	if _, ok := attrs["reactive.level"]; ok {
		t.Error("level should not be present")
	}
	if _, ok := attrs["reactive.order_key"]; ok {
		t.Error("order_key should not be present")
	}
	if _, ok := attrs["reactive.status"]; ok {
		t.Error("status should not be present")
	}
}

// TestOTelEmitter_MetadataTypes verifies different metadata types are handled.
func TestOTelEmitter_MetadataTypes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "test_types",
		Meta: map[string]interface{}{
			"string_val":   "hello",
			"int_val":      42,
			"int64_val":    int64(99),
			"float64_val":  3.14,
			"bool_val":     true,
			"duration_val": 250 * time.Millisecond,
		},
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	attrs := attributeMap(span.Attributes)

	if got := attrs["string_val"]; got != "hello" {
		t.Errorf("string_val = %v, want %q", got, "hello")
	}
	if got := attrs["int_val"]; got != int64(42) {
		t.Errorf("int_val = %v, want %d", got, 42)
	}
	if got := attrs["int64_val"]; got != int64(99) {
		t.Errorf("int64_val = %v, want %d", got, 99)
	}
	if got := attrs["float64_val"]; got != 3.14 {
		t.Errorf("float64_val = %v, want %f", got, 3.14)
	}
	if got := attrs["bool_val"]; got != true {
		t.Errorf("bool_val = %v, want %t", got, true)
	}
	if got := attrs["duration_val"]; got != int64(250) {
		t.Errorf("duration_val = %v, want %d ms", got, 250)
	}
}

// TestOTelEmitter_NilMeta verifies nil metadata is handled.
func TestOTelEmitter_NilMeta(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	emitter := NewOTelEmitter(tracer)

	event := Event{
		DomainID: "domain-001",
		TurnID:   1,
		NodeID:   "n0.0",
		Msg:      "node_tick",
		Meta:     nil,
	}
	emitter.Emit(event)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	attrs := attributeMap(span.Attributes)

	if got := attrs["reactive.domain_id"]; got != "domain-001" {
		t.Errorf("domain_id = %v, want %q", got, "domain-001")
	}
}

// attributeMap converts span attributes to map for easy testing.
func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
