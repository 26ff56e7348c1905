// Package remote adapts an LLM chat provider into a reactive.Domain
// computed-signal node kind: one blocking API call per tick, demonstrating
// that the core contract (spec §9: "the core contract admits user-defined
// node kinds") covers I/O-bound recompute functions, not just pure local
// ones, with no changes to the propagation engine itself.
package remote

import (
	"context"
	"fmt"

	"github.com/dshills/reactor-go/reactive"
)

// ChatModel is the interface a provider adapter implements; see the
// anthropic subpackage for the reference adapter.
type ChatModel interface {
	// Chat sends messages to the LLM and returns its response. tools may
	// be nil; implementations that don't support function calling ignore
	// a non-nil tools argument rather than erroring.
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}

// Message is one turn of an LLM conversation.
type Message struct {
	Role    string
	Content string
}

// Standard roles, shared across providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolSpec describes a function the LLM may call.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ChatOut is an LLM completion: text, tool calls, or both.
type ChatOut struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolCall is one function-call request from the LLM.
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}

// ProviderError wraps a provider adapter's underlying failure (HTTP,
// decode, SDK-internal) with the provider's name, mirroring reactive's
// CallbackError/ObserverError Unwrap pattern (reactive/errors.go) so a
// caller can errors.As past the provider boundary to the original cause.
// NewChatSignal's recompute function returns errors like this one wrapped
// with fmt.Errorf's %w; the engine wraps them in a reactive.CallbackError for the
// turn (spec §7.2), so this is the layer immediately beneath that.
type ProviderError struct {
	Provider string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// NewChatSignal registers a computed signal (spec §4.8's Lift kind, with
// an I/O-bound recompute function) that calls model.Chat once per turn in
// which any node in preds changes. promptFn builds the conversation to
// send from the current values of those predecessors; it is called
// synchronously from the node's tick, so it must not itself start a new
// transaction (spec §4.3 forbids nested transactions on the same Domain).
//
// A failed call surfaces as a CallbackError on the turn (spec §7.2): the
// node keeps its previous completion text rather than clearing it.
func NewChatSignal(d *reactive.Domain, preds []reactive.NodeID, promptFn func() ([]Message, error), model ChatModel) (reactive.NodeID, error) {
	return d.NewSignal(preds, func() (any, error) {
		msgs, err := promptFn()
		if err != nil {
			return nil, fmt.Errorf("remote: build prompt: %w", err)
		}
		out, err := model.Chat(context.Background(), msgs, nil)
		if err != nil {
			return nil, fmt.Errorf("remote: chat completion: %w", err)
		}
		return out.Text, nil
	}, nil)
}
