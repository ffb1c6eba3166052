// Package completion sends a message history to a remote chat model and
// returns the next assistant reply.
//
// The full history is sent on every call. No truncation, windowing, or
// summarization is attempted, so request size grows with the history.
package completion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minhyannv/chatbot-go/pkg/history"
	loggerpkg "github.com/minhyannv/chatbot-go/pkg/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultOpenAIModel is used when no model is configured for the OpenAI provider.
const DefaultOpenAIModel = "gpt-3.5-turbo"

// Completer produces one assistant reply for a message history.
type Completer interface {
	// Complete returns the reply text with surrounding whitespace removed.
	// Failures are reported as *Error.
	Complete(ctx context.Context, model string, messages []history.Message) (string, error)
}

// StreamCompleter is implemented by completers that can write the reply to
// w incrementally while it is generated.
type StreamCompleter interface {
	Completer
	CompleteStream(ctx context.Context, model string, messages []history.Message, w io.Writer) (string, error)
}

// Options configures a provider client.
type Options struct {
	APIKey  string
	BaseURL string
	// SystemPrompt is prepended to every request. It is never part of the
	// history passed in by callers.
	SystemPrompt string
	// MaxTokens caps reply length where the provider requires a cap.
	MaxTokens  int64
	HTTPClient *http.Client
	Logger     loggerpkg.Logger
}

// New builds the completer for provider.
func New(provider string, opts Options) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		return NewOpenAI(opts), nil
	case ProviderAnthropic:
		return NewAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", provider, ProviderOpenAI, ProviderAnthropic)
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	if strings.EqualFold(strings.TrimSpace(provider), ProviderAnthropic) {
		return DefaultAnthropicModel
	}
	return DefaultOpenAIModel
}
