package emit

// Event represents an observability event emitted during Domain
// propagation.
//
// Events give insight into engine behavior:
//   - Turn commit, with the turn's callback and observer failure counts
//   - Node tick outcomes (changed/unchanged/reattach), with the callback
//     error when a tick failed
//   - Domain poisoning
//
// Events are emitted to an Emitter, which can log them, forward them to
// OpenTelemetry, buffer them for inspection, or discard them.
type Event struct {
	// DomainID identifies the Domain that emitted this event.
	DomainID string

	// TurnID is the sequence number of the turn this event belongs to.
	// Zero for Domain-level events not tied to any turn (e.g. poisoning).
	TurnID uint64

	// NodeID identifies which node emitted this event, as its String()
	// form. Empty for turn- or domain-level events.
	NodeID string

	// Msg is a human-readable description of the event, e.g.
	// "node_tick", "turn_committed", "domain_poisoned".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys: "status", "error", "duration_ms", "callback_failures",
	// "observer_failures".
	Meta map[string]interface{}
}
