package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/minhyannv/chatbot-go/pkg/history"
	loggerpkg "github.com/minhyannv/chatbot-go/pkg/logger"
)

// DefaultAnthropicModel is used when no model is configured for the Anthropic provider.
const DefaultAnthropicModel = string(anthropic.ModelClaude3_7SonnetLatest)

const defaultAnthropicMaxTokens int64 = 1024

// Anthropic completes through the Messages API.
type Anthropic struct {
	client       anthropic.Client
	systemPrompt string
	maxTokens    int64
	logger       loggerpkg.Logger
}

var _ Completer = (*Anthropic)(nil)

// NewAnthropic builds an Anthropic completer with SDK retries disabled.
func NewAnthropic(opts Options) *Anthropic {
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &Anthropic{
		client:       anthropic.NewClient(reqOpts...),
		systemPrompt: strings.TrimSpace(opts.SystemPrompt),
		maxTokens:    maxTokens,
		logger:       loggerpkg.OrNop(opts.Logger),
	}
}

// Complete sends messages and joins the text blocks of the reply.
func (c *Anthropic) Complete(ctx context.Context, model string, messages []history.Message) (string, error) {
	params, err := c.newParams(model, messages)
	if err != nil {
		return "", invalidRequest(ProviderAnthropic, err)
	}
	c.logger.Debug("anthropic: sending messages request", map[string]any{
		"model":    model,
		"messages": len(params.Messages),
	})

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(ProviderAnthropic, err, anthropicStatus)
	}

	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return "", malformed(ProviderAnthropic, errNoText)
	}
	c.logger.Debug("anthropic: reply received", map[string]any{
		"blocks":      len(msg.Content),
		"stop_reason": msg.StopReason,
	})
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// newParams maps the history onto the Messages API. System-role entries are
// not allowed in the message list there, so they join the system prompt.
func (c *Anthropic) newParams(model string, messages []history.Message) (anthropic.MessageNewParams, error) {
	var system []anthropic.TextBlockParam
	if c.systemPrompt != "" {
		system = append(system, anthropic.TextBlockParam{Text: c.systemPrompt})
	}
	conv := make([]anthropic.MessageParam, 0, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case history.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case history.RoleUser:
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case history.RoleAssistant:
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages:  conv,
	}
	if len(system) > 0 {
		params.System = system
	}
	return params, nil
}

func anthropicStatus(err error) (int, bool) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
