package emit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating an OpenTelemetry span per event.
//
// Each event becomes a span with:
//   - Span name: event.Msg (e.g. "node_start", "invoke_end")
//   - Attributes: chatgraph.run_id, chatgraph.step, chatgraph.node_id and
//     every event.Meta field
//   - Status: Error if event.Meta["error"] is set
//
// Spans are ended immediately; events are points in time. Durations
// travel as the "latency_ms" attribute.
//
// Usage:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	emitter := emit.NewOTelEmitter(tp.Tracer("chatgraph"))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates a new OTelEmitter using tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and ends one span for event.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("chatgraph.run_id", event.RunID),
		attribute.Int("chatgraph.step", event.Step),
		attribute.String("chatgraph.node_id", event.NodeID),
	)

	o.addMetadataAttributes(span, event.Meta)

	if msg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, msg)
		span.RecordError(errors.New(msg))
	}
}

// addMetadataAttributes converts event metadata to span attributes.
//
// Well-known keys are mapped into the chatgraph namespace; the rest keep
// their name. Unknown value types fall back to their string form.
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	for key, value := range meta {
		attrKey := key
		switch key {
		case "latency_ms":
			attrKey = "chatgraph.latency_ms"
		case "graph":
			attrKey = "chatgraph.graph"
		case "status":
			attrKey = "chatgraph.status"
		case "error":
			// recorded through span status
			continue
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, v.Milliseconds()))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}
