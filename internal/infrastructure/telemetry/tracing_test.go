package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retailsuite/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global tracer
// provider and returns it together with a restore function.
func setupTestTracer(t *testing.T) (*tracetest.SpanRecorder, func()) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sr),
	)

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	return sr, func() {
		otel.SetTracerProvider(previous)
	}
}

func endedSpans(sr *tracetest.SpanRecorder) []sdktrace.ReadOnlySpan {
	return sr.Ended()
}

func attributeMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestStartSpan(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	ctx, span := telemetry.StartSpan(context.Background(), "test-operation")
	require.NotNil(t, ctx)
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)
	assert.Equal(t, "test-operation", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	saleID := uuid.New()
	_, span := telemetry.StartSpan(context.Background(), "record-sale",
		telemetry.WithAttribute(telemetry.SpanAttrSaleID, saleID),
		telemetry.WithAttribute(telemetry.SpanAttrPoints, int64(42)),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())

	attrs := attributeMap(spans[0])
	assert.Equal(t, saleID.String(), attrs[attribute.Key(telemetry.SpanAttrSaleID)].AsString())
	assert.Equal(t, int64(42), attrs[attribute.Key(telemetry.SpanAttrPoints)].AsInt64())
}

func TestStartServiceSpan(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartServiceSpan(context.Background(), "SaleService", "RecordSale")
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)
	assert.Equal(t, "SaleService.RecordSale", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartSpan(context.Background(), "attrs")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleNumber, "S-000123",
		telemetry.SpanAttrAmount, 99.95,
		"active", true,
	)
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)

	attrs := attributeMap(spans[0])
	assert.Equal(t, "S-000123", attrs[attribute.Key(telemetry.SpanAttrSaleNumber)].AsString())
	assert.Equal(t, 99.95, attrs[attribute.Key(telemetry.SpanAttrAmount)].AsFloat64())
	assert.True(t, attrs["active"].AsBool())
}

func TestSetAttributes_NonStringKeyStopsPairing(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartSpan(context.Background(), "attrs")
	telemetry.SetAttributes(span, "first", "ok", 42, "dropped")
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)

	attrs := attributeMap(spans[0])
	assert.Equal(t, "ok", attrs["first"].AsString())
	assert.Len(t, attrs, 1)
}

func TestRecordError(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartSpan(context.Background(), "failing")
	telemetry.RecordError(span, errors.New("storage unavailable"))
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "storage unavailable", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecordError_NilErrorIgnored(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartSpan(context.Background(), "fine")
	telemetry.RecordError(span, nil)
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestSetOK(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartSpan(context.Background(), "ok")
	telemetry.SetOK(span)
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr, restore := setupTestTracer(t)
	defer restore()

	_, span := telemetry.StartSpan(context.Background(), "events")
	telemetry.AddEvent(span, "points_credited", telemetry.SpanAttrPoints, 15)
	telemetry.AddEvent(span, "plain_event")
	span.End()

	spans := endedSpans(sr)
	require.Len(t, spans, 1)

	events := spans[0].Events()
	require.Len(t, events, 2)
	assert.Equal(t, "points_credited", events[0].Name)
	require.Len(t, events[0].Attributes, 1)
	assert.Equal(t, int64(15), events[0].Attributes[0].Value.AsInt64())
	assert.Equal(t, "plain_event", events[1].Name)
	assert.Empty(t, events[1].Attributes)
}

func TestGetTraceID_And_GetSpanID(t *testing.T) {
	_, restore := setupTestTracer(t)
	defer restore()

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "ids")
	defer span.End()

	assert.Len(t, telemetry.GetTraceID(ctx), 32)
	assert.Len(t, telemetry.GetSpanID(ctx), 16)
}

func TestSpanFromContext_RoundTrip(t *testing.T) {
	_, restore := setupTestTracer(t)
	defer restore()

	ctx, span := telemetry.StartSpan(context.Background(), "roundtrip")
	defer span.End()

	carried := telemetry.ContextWithSpan(context.Background(), span)
	assert.Equal(t, telemetry.SpanFromContext(ctx).SpanContext().SpanID(),
		telemetry.SpanFromContext(carried).SpanContext().SpanID())
}
