package emit

import "context"

// NullEmitter implements Emitter by discarding every event. It is the
// Domain default when no emitter is configured (zero overhead, safe for
// concurrent use).
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {
}

// EmitBatch discards every event and returns nil.
func (n *NullEmitter) EmitBatch(_ context.Context, _ []Event) error {
	return nil
}

// Flush is a no-op.
func (n *NullEmitter) Flush(_ context.Context) error {
	return nil
}
