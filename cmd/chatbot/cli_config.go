package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/minhyannv/chatbot-go/pkg/completion"
	configpkg "github.com/minhyannv/chatbot-go/pkg/config"
)

// parseCLIConfig loads .env and parses flags into runtime config. Unset
// -api_key, -model, and -base_url stay empty here; configpkg.Resolve fills
// them from the credential file and then envValues.
func parseCLIConfig(args []string, errOut io.Writer) (configpkg.Config, error) {
	_ = godotenv.Load()

	defaults := configpkg.DefaultConfig()
	fs := flag.NewFlagSet("chatbot", flag.ContinueOnError)
	fs.SetOutput(errOut)

	model := fs.String("model", "", fmt.Sprintf("Model to use (default: %s, or %s with -provider anthropic)", completion.DefaultOpenAIModel, completion.DefaultAnthropicModel))
	apiKey := fs.String("api_key", "", "API key (default: loaded from config.json in -data_dir)")
	provider := fs.String("provider", defaults.Provider, "Completion provider: openai or anthropic")
	baseURL := fs.String("base_url", "", "Override the provider API base URL")
	dataDir := fs.String("data_dir", defaults.DataDir, "Directory holding config.json, context.json and conversations/")
	system := fs.String("system", "", "System prompt sent with every request (never saved to history)")
	stream := fs.Bool("stream", defaults.Stream, "Stream assistant output (openai only)")
	timeout := fs.Duration("timeout", defaults.Timeout, "Per-request timeout, e.g. 60s (0 = none)")
	verbose := fs.Bool("verbose", defaults.Verbose, "Verbose debug logging to stderr")
	noColor := fs.Bool("no_color", defaults.NoColor, "Disable colored prompts")
	if err := fs.Parse(args); err != nil {
		return configpkg.Config{}, err
	}
	if fs.NArg() > 0 {
		return configpkg.Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg := defaults
	cfg.Provider = *provider
	cfg.Model = *model
	cfg.APIKey = *apiKey
	cfg.BaseURL = *baseURL
	cfg.DataDir = *dataDir
	cfg.SystemPrompt = *system
	cfg.Stream = *stream
	cfg.Timeout = *timeout
	cfg.Verbose = *verbose
	cfg.NoColor = *noColor
	return configpkg.Normalize(cfg), nil
}

// envValues reads the provider's OPENAI_*/ANTHROPIC_* variables.
func envValues(provider string) configpkg.Env {
	prefix := envPrefix(provider)
	return configpkg.Env{
		APIKey:  strings.TrimSpace(os.Getenv(prefix + "_API_KEY")),
		BaseURL: strings.TrimSpace(os.Getenv(prefix + "_BASE_URL")),
		Model:   strings.TrimSpace(os.Getenv(prefix + "_MODEL")),
	}
}

func envPrefix(provider string) string {
	if provider == completion.ProviderAnthropic {
		return "ANTHROPIC"
	}
	return "OPENAI"
}
