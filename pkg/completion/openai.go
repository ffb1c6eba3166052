package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/chatbot-go/pkg/history"
	loggerpkg "github.com/minhyannv/chatbot-go/pkg/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI completes through the Chat Completions API.
type OpenAI struct {
	client       openai.Client
	systemPrompt string
	logger       loggerpkg.Logger
}

var _ StreamCompleter = (*OpenAI)(nil)

// NewOpenAI builds an OpenAI completer. SDK retries are disabled: a failed
// call is reported once and never repeated.
func NewOpenAI(opts Options) *OpenAI {
	return &OpenAI{
		client:       newOpenAIClient(opts),
		systemPrompt: strings.TrimSpace(opts.SystemPrompt),
		logger:       loggerpkg.OrNop(opts.Logger),
	}
}

func newOpenAIClient(opts Options) openai.Client {
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
	return openai.NewClient(reqOpts...)
}

// Complete sends messages and returns the first choice's content.
func (c *OpenAI) Complete(ctx context.Context, model string, messages []history.Message) (string, error) {
	params, err := c.newParams(model, messages)
	if err != nil {
		return "", err
	}
	c.logger.Debug("openai: sending chat completion request", map[string]any{
		"model":    model,
		"messages": len(params.Messages),
	})

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(ProviderOpenAI, err, openAIStatus)
	}
	if len(completion.Choices) == 0 {
		return "", malformed(ProviderOpenAI, errNoChoices)
	}
	c.logger.Debug("openai: chat completion received", map[string]any{
		"choices":       len(completion.Choices),
		"finish_reason": completion.Choices[0].FinishReason,
	})
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// CompleteStream is Complete with content deltas copied to w as they arrive.
func (c *OpenAI) CompleteStream(ctx context.Context, model string, messages []history.Message, w io.Writer) (string, error) {
	params, err := c.newParams(model, messages)
	if err != nil {
		return "", err
	}
	if w == nil {
		w = io.Discard
	}
	c.logger.Debug("openai: sending streaming chat completion request", map[string]any{
		"model":    model,
		"messages": len(params.Messages),
	})

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	chunks := 0
	for stream.Next() {
		chunk := stream.Current()
		chunks++
		if !acc.AddChunk(chunk) {
			return "", malformed(ProviderOpenAI, fmt.Errorf("failed to accumulate stream chunk %d", chunks))
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			_, _ = io.WriteString(w, chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return "", classify(ProviderOpenAI, err, openAIStatus)
	}
	if len(acc.Choices) == 0 {
		return "", malformed(ProviderOpenAI, errNoChoices)
	}
	c.logger.Debug("openai: stream completed", map[string]any{"chunks": chunks})
	return strings.TrimSpace(acc.Choices[0].Message.Content), nil
}

func (c *OpenAI) newParams(model string, messages []history.Message) (openai.ChatCompletionNewParams, error) {
	converted, err := c.toOpenAIMessages(messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, invalidRequest(ProviderOpenAI, err)
	}
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: converted,
	}, nil
}

func (c *OpenAI) toOpenAIMessages(messages []history.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if c.systemPrompt != "" {
		out = append(out, openai.SystemMessage(c.systemPrompt))
	}
	for i, msg := range messages {
		switch msg.Role {
		case history.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case history.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case history.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
	}
	return out, nil
}

func openAIStatus(err error) (int, bool) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
