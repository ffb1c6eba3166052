package history

import (
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It is meant for tests and for runs
// that should leave nothing on disk.
type MemoryStore struct {
	Context       []Message
	Conversations map[string][]Message
	// Names lists conversation record names in save order.
	Names []string

	// LoadErr and SaveErr, when set, are returned by the matching calls.
	LoadErr error
	SaveErr error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store whose context starts as a copy of initial.
func NewMemoryStore(initial []Message) *MemoryStore {
	return &MemoryStore{
		Context:       Clone(initial),
		Conversations: make(map[string][]Message),
	}
}

func (s *MemoryStore) LoadContext() ([]Message, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return Clone(s.Context), nil
}

func (s *MemoryStore) SaveContext(msgs []Message) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Context = Clone(msgs)
	return nil
}

func (s *MemoryStore) SaveConversation(at time.Time, msgs []Message) (string, error) {
	if s.SaveErr != nil {
		return "", s.SaveErr
	}
	if s.Conversations == nil {
		s.Conversations = make(map[string][]Message)
	}
	name := conversationBase(at) + ".json"
	if _, exists := s.Conversations[name]; exists {
		name = conversationBase(at) + "_" + uuid.NewString()[:8] + ".json"
	}
	s.Conversations[name] = Clone(msgs)
	s.Names = append(s.Names, name)
	return name, nil
}

// Last returns the most recently saved conversation, or nil if none.
func (s *MemoryStore) Last() []Message {
	if len(s.Names) == 0 {
		return nil
	}
	return s.Conversations[s.Names[len(s.Names)-1]]
}
