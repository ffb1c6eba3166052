package history

import (
	"fmt"
	"time"
)

// Store loads and saves the two message logs.
type Store interface {
	// LoadContext returns the accumulated context. A missing context is not
	// an error and yields an empty slice.
	LoadContext() ([]Message, error)
	// SaveContext replaces the persisted context with msgs.
	SaveContext(msgs []Message) error
	// SaveConversation archives one session's messages under a new record
	// named from at and returns the record name.
	SaveConversation(at time.Time, msgs []Message) (string, error)
}

// StoreError reports a failed store operation.
type StoreError struct {
	Op   string // "read", "parse", "write"
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

const conversationTimeLayout = "20060102_150405"

// conversationBase is the record name without extension for a session saved at t.
func conversationBase(t time.Time) string {
	return "conversation_" + t.Format(conversationTimeLayout)
}
