// Package anthropic adapts Anthropic's Claude API to remote.ChatModel, so
// a reactive.Domain computed signal (remote.NewChatSignal) can use Claude
// as its recompute function.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/reactor-go/reactive/remote"
)

const defaultModel = "claude-sonnet-4-5-20250929"
const defaultMaxTokens = int64(4096)

// config mirrors reactive.Options' functional-options shape (reactive/
// options.go): a zero-value-safe struct built up by Option values applied
// over a default, rather than a long constructor parameter list.
type config struct {
	model     string
	maxTokens int64
}

func defaultConfig() config {
	return config{model: defaultModel, maxTokens: defaultMaxTokens}
}

// Option configures a ChatModel at construction.
type Option func(*config)

// WithModel overrides the Claude model name (default: claude-sonnet-4-5).
func WithModel(name string) Option {
	return func(c *config) { c.model = name }
}

// WithMaxTokens overrides the response token budget (default: 4096).
func WithMaxTokens(n int64) Option {
	return func(c *config) { c.maxTokens = n }
}

// ChatModel implements remote.ChatModel against Anthropic's Messages API,
// extracting system messages into the API's separate system parameter and
// translating SDK errors into remote.ProviderError (mirroring reactive's
// CallbackError.Unwrap pattern, errors.go) so callers can errors.As past
// the provider boundary.
type ChatModel struct {
	client anthropicClient
}

// anthropicClient is the seam mocked by tests in place of the real SDK.
type anthropicClient interface {
	createMessage(ctx context.Context, systemPrompt string, messages []remote.Message, tools []remote.ToolSpec) (remote.ChatOut, error)
}

// NewChatModel creates a ChatModel for apiKey, applying opts over
// defaultConfig.
func NewChatModel(apiKey string, opts ...Option) *ChatModel {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &ChatModel{client: &defaultClient{apiKey: apiKey, cfg: cfg}}
}

// Chat implements remote.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []remote.Message, tools []remote.ToolSpec) (remote.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return remote.ChatOut{}, err
	}
	systemPrompt, conversation := extractSystemPrompt(messages)
	out, err := m.client.createMessage(ctx, systemPrompt, conversation, tools)
	if err != nil {
		return remote.ChatOut{}, &remote.ProviderError{Provider: "anthropic", Cause: err}
	}
	return out, nil
}

// extractSystemPrompt pulls every system-role message out of messages,
// concatenated in order, since Anthropic takes the system prompt as a
// separate request field rather than a message in the conversation.
func extractSystemPrompt(messages []remote.Message) (string, []remote.Message) {
	var systemPrompt string
	var conversation []remote.Message
	for _, msg := range messages {
		if msg.Role == remote.RoleSystem {
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += msg.Content
			continue
		}
		conversation = append(conversation, msg)
	}
	return systemPrompt, conversation
}

// defaultClient wraps the official Anthropic SDK client.
type defaultClient struct {
	apiKey string
	cfg    config
}

func (c *defaultClient) createMessage(ctx context.Context, systemPrompt string, messages []remote.Message, tools []remote.ToolSpec) (remote.ChatOut, error) {
	if c.apiKey == "" {
		return remote.ChatOut{}, errors.New("anthropic: API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.cfg.model),
		Messages:  convertMessages(messages),
		MaxTokens: c.cfg.maxTokens,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return remote.ChatOut{}, fmt.Errorf("messages.new: %w", err)
	}
	return convertResponse(resp), nil
}

// convertMessages converts remote.Message to Anthropic's message params.
// Unrecognized roles (system is handled separately) fall back to user.
func convertMessages(messages []remote.Message) []anthropicsdk.MessageParam {
	result := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case remote.RoleAssistant:
			result[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			result[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return result
}

// convertTools converts remote.ToolSpec to Anthropic's tool params.
func convertTools(tools []remote.ToolSpec) []anthropicsdk.ToolUnionParam {
	result := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var properties any
		var required []string
		if tool.Schema != nil {
			properties = tool.Schema["properties"]
			switch req := tool.Schema["required"].(type) {
			case []string:
				required = req
			case []interface{}:
				for _, v := range req {
					if s, ok := v.(string); ok {
						required = append(required, s)
					}
				}
			}
		}
		result[i] = anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        tool.Name,
				Description: anthropicsdk.String(tool.Description),
				InputSchema: anthropicsdk.ToolInputSchemaParam{Properties: properties, Required: required},
			},
		}
	}
	return result
}

// convertResponse converts an Anthropic Message into remote.ChatOut,
// concatenating text blocks and collecting tool-use blocks as ToolCalls.
func convertResponse(resp *anthropicsdk.Message) remote.ChatOut {
	out := remote.ChatOut{}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += b.Text
		case anthropicsdk.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, remote.ToolCall{
				Name:  b.Name,
				Input: convertToolInput(b.Input),
			})
		}
	}
	return out
}

// convertToolInput normalizes a tool-use block's decoded input to a map,
// wrapping non-map values rather than discarding them.
func convertToolInput(input interface{}) map[string]interface{} {
	if input == nil {
		return nil
	}
	if m, ok := input.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"_raw": input}
}
