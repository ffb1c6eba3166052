// Package session runs the interactive chat loop.
//
// A ChatSession keeps two logs. The context is the full cross-session
// history: it is loaded from the store, grows during the session, and is
// written back wholesale at the end. The conversation holds only this
// session's messages and is archived as a new record at the end. Every
// message goes to both logs in the same step, so the conversation is always
// a suffix of the context.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/minhyannv/chatbot-go/pkg/completion"
	"github.com/minhyannv/chatbot-go/pkg/history"
	loggerpkg "github.com/minhyannv/chatbot-go/pkg/logger"
)

// ExitCommand ends the session when entered on its own line, in any case.
const ExitCommand = "exit"

const maxLineBytes = 1024 * 1024

// Options configures a ChatSession.
type Options struct {
	Model string
	In    io.Reader
	Out   io.Writer
	// Stream writes replies as they are generated when the completer
	// supports it.
	Stream bool
	// Timeout bounds each completion call. Zero means no bound beyond the
	// client's own defaults.
	Timeout time.Duration
	// Color styles the prompt labels.
	Color  bool
	Now    func() time.Time
	Logger loggerpkg.Logger
}

// Result summarizes a finished session.
type Result struct {
	// Turns counts completed user/assistant exchanges.
	Turns int
	// ConversationName is the archive record written for this session.
	ConversationName string
	// CompletionErr is the completion failure that ended the session, if any.
	// It has already been shown to the user.
	CompletionErr error
	// Interrupted is set when ctx was canceled while waiting for input.
	Interrupted bool
}

// ChatSession is one run of the chat loop.
type ChatSession struct {
	completer completion.Completer
	store     history.Store
	opts      Options
	logger    loggerpkg.Logger

	youLabel *color.Color
	botLabel *color.Color

	context      []history.Message
	conversation []history.Message
}

// New validates dependencies and returns a session ready to Run.
func New(completer completion.Completer, store history.Store, opts Options) (*ChatSession, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	opts.Model = strings.TrimSpace(opts.Model)
	if opts.Model == "" {
		return nil, errors.New("model is required")
	}
	if opts.In == nil {
		return nil, errors.New("input reader is required")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	you := color.New(color.FgGreen, color.Bold)
	bot := color.New(color.FgCyan, color.Bold)
	for _, c := range []*color.Color{you, bot} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return &ChatSession{
		completer: completer,
		store:     store,
		opts:      opts,
		logger:    loggerpkg.OrNop(opts.Logger),
		youLabel:  you,
		botLabel:  bot,
	}, nil
}

// Run loads the context, chats until the user types exit, input ends, a
// completion fails, or ctx is canceled, and then persists both logs.
//
// A completion failure is printed and recorded in Result.CompletionErr; the
// user message that triggered it stays in both logs. The returned error is
// reserved for load, read, and persistence failures.
func (s *ChatSession) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	loaded, err := s.store.LoadContext()
	if err != nil {
		return Result{}, fmt.Errorf("load context: %w", err)
	}
	s.context = history.Clone(loaded)
	s.conversation = []history.Message{}
	s.logger.Debug("session start", map[string]any{
		"model":            s.opts.Model,
		"context_messages": len(s.context),
		"stream":           s.opts.Stream,
	})

	s.printWelcome()

	stop := make(chan struct{})
	defer close(stop)
	lines, readErrs := readLines(s.opts.In, stop)

	var res Result
	var readErr error
loop:
	for {
		s.printPrompt()

		var input string
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(s.opts.Out)
			res.Interrupted = true
			break loop
		case line, ok := <-lines:
			if !ok {
				_, _ = fmt.Fprintln(s.opts.Out)
				select {
				case readErr = <-readErrs:
				default:
				}
				break loop
			}
			input = strings.TrimSuffix(line, "\r")
		}

		if isExit(input) {
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		if err := s.turn(ctx, input); err != nil {
			_, _ = fmt.Fprintf(s.opts.Out, "Error: %v\n", err)
			s.logger.Debug("completion failed", map[string]any{
				"kind":  completion.KindOf(err).String(),
				"turn":  res.Turns + 1,
				"error": err.Error(),
			})
			res.CompletionErr = err
			break
		}
		res.Turns++
	}

	name, saveErr := s.save()
	res.ConversationName = name
	if readErr != nil {
		readErr = fmt.Errorf("read input: %w", readErr)
	}
	return res, errors.Join(readErr, saveErr)
}

// turn runs one exchange. The user message is logged before the call, so it
// remains in both logs when the call fails.
func (s *ChatSession) turn(ctx context.Context, input string) error {
	s.appendBoth(history.UserMessage(input))

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	s.logger.Debug("completion request", map[string]any{"messages": len(s.context)})
	reply, err := s.complete(callCtx)
	if err != nil {
		return err
	}
	s.appendBoth(history.AssistantMessage(reply))
	return nil
}

func (s *ChatSession) complete(ctx context.Context) (string, error) {
	if streamer, ok := s.completer.(completion.StreamCompleter); ok && s.opts.Stream {
		_, _ = fmt.Fprint(s.opts.Out, s.botLabel.Sprint("Bot:")+" ")
		reply, err := streamer.CompleteStream(ctx, s.opts.Model, s.context, s.opts.Out)
		_, _ = fmt.Fprintln(s.opts.Out)
		return reply, err
	}

	reply, err := s.completer.Complete(ctx, s.opts.Model, s.context)
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(s.opts.Out, "%s %s\n", s.botLabel.Sprint("Bot:"), reply)
	return reply, nil
}

func (s *ChatSession) appendBoth(msg history.Message) {
	s.conversation = append(s.conversation, msg)
	s.context = append(s.context, msg)
}

// save archives the conversation and then overwrites the context. The two
// writes are independent: a failure in one does not skip the other.
func (s *ChatSession) save() (string, error) {
	var errs []error

	name, err := s.store.SaveConversation(s.opts.Now(), s.conversation)
	if err != nil {
		errs = append(errs, fmt.Errorf("save conversation: %w", err))
	} else {
		_, _ = fmt.Fprintf(s.opts.Out, "Conversation saved as %s\n", name)
	}

	if err := s.store.SaveContext(s.context); err != nil {
		errs = append(errs, fmt.Errorf("save context: %w", err))
	}

	s.logger.Debug("session saved", map[string]any{
		"conversation":          name,
		"conversation_messages": len(s.conversation),
		"context_messages":      len(s.context),
	})
	return name, errors.Join(errs...)
}

func (s *ChatSession) printWelcome() {
	_, _ = fmt.Fprintf(s.opts.Out, "Welcome to the chatbot CLI. Type '%s' to end the session.\n", ExitCommand)
}

func (s *ChatSession) printPrompt() {
	_, _ = fmt.Fprint(s.opts.Out, s.youLabel.Sprint("You:")+" ")
}

func isExit(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), ExitCommand)
}

// readLines feeds lines from r into the returned channel until r is
// exhausted or stop is closed. The error channel receives the scanner
// error, if any, before the line channel is closed.
func readLines(r io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()
	return lines, errs
}
