package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter implements Emitter by writing structured log output to a
// writer.
//
// Supports two output modes: text (human-readable key=value pairs) and
// JSON (one event per line, JSONL).
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer (os.Stdout if
// nil). jsonMode selects JSONL output over text.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		DomainID string                 `json:"domainID"`
		TurnID   uint64                 `json:"turnID"`
		NodeID   string                 `json:"nodeID"`
		Msg      string                 `json:"msg"`
		Meta     map[string]interface{} `json:"meta"`
	}{
		DomainID: event.DomainID,
		TurnID:   event.TurnID,
		NodeID:   event.NodeID,
		Msg:      event.Msg,
		Meta:     event.Meta,
	})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] domainID=%s turnID=%d nodeID=%s",
		event.Msg, event.DomainID, event.TurnID, event.NodeID)

	if len(event.Meta) > 0 {
		metaJSON, err := json.Marshal(event.Meta)
		if err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}

	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes events in order, minimizing the per-event call
// overhead of repeated Emit calls.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		if l.jsonMode {
			l.emitJSON(event)
		} else {
			l.emitText(event)
		}
	}
	return nil
}

// Flush is a no-op: LogEmitter writes directly to its writer with no
// internal buffering. Wrap writer in a bufio.Writer and flush that
// directly if buffering is needed.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}
