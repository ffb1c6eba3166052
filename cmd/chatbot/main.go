// Package main is a command-line chat client that keeps a persistent,
// cross-session context and archives each session's conversation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/minhyannv/chatbot-go/pkg/completion"
	configpkg "github.com/minhyannv/chatbot-go/pkg/config"
	"github.com/minhyannv/chatbot-go/pkg/history"
	loggerpkg "github.com/minhyannv/chatbot-go/pkg/logger"
	"github.com/minhyannv/chatbot-go/pkg/session"
)

// main is the program entry point.
func main() {
	cfg, err := parseCLIConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run resolves credentials, wires the session, and runs it. It returns the
// process exit code: 1 for startup and persistence failures, 0 otherwise,
// including sessions ended by a completion error.
func run(ctx context.Context, cfg configpkg.Config, in io.Reader, out, errOut io.Writer) int {
	useColor := !cfg.NoColor && !color.NoColor
	appLogger := loggerpkg.NewWriterLogger(errOut, loggerpkg.Options{
		Verbose: cfg.Verbose,
		Color:   useColor,
	})

	cfg, err := configpkg.Resolve(cfg, envValues(cfg.Provider))
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	if cfg.Model == "" {
		cfg.Model = completion.DefaultModel(cfg.Provider)
	}
	loggerpkg.Debugf(appLogger, "config resolved: provider=%s model=%s data_dir=%s base_url=%s stream=%v timeout=%s",
		cfg.Provider, cfg.Model, cfg.DataDir, cfg.BaseURL, cfg.Stream, cfg.Timeout)

	completer, err := completion.New(cfg.Provider, completion.Options{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		SystemPrompt: cfg.SystemPrompt,
		Logger:       appLogger,
	})
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	if cfg.Stream {
		if _, ok := completer.(completion.StreamCompleter); !ok {
			loggerpkg.Warn(appLogger, "streaming not supported by provider; replies will print when complete", map[string]any{
				"provider": cfg.Provider,
			})
		}
	}

	store := history.NewFileStore(cfg.ContextPath(), cfg.ConversationsDir())
	sess, err := session.New(completer, store, session.Options{
		Model:   cfg.Model,
		In:      in,
		Out:     out,
		Stream:  cfg.Stream,
		Timeout: cfg.Timeout,
		Color:   useColor,
		Logger:  appLogger,
	})
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	res, err := sess.Run(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	loggerpkg.Debugf(appLogger, "session finished: turns=%d conversation=%s interrupted=%v", res.Turns, res.ConversationName, res.Interrupted)
	return 0
}
