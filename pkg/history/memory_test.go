package history

import (
	"testing"
	"time"
)

func TestMemoryStore_CopiesOnSave(t *testing.T) {
	s := NewMemoryStore(nil)
	msgs := []Message{UserMessage("a")}
	if err := s.SaveContext(msgs); err != nil {
		t.Fatalf("save: %v", err)
	}
	msgs[0].Content = "mutated"
	if s.Context[0].Content != "a" {
		t.Fatalf("store aliased caller slice: %+v", s.Context)
	}
}

func TestMemoryStore_SameSecondGetsDistinctNames(t *testing.T) {
	s := NewMemoryStore(nil)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a, _ := s.SaveConversation(at, nil)
	b, _ := s.SaveConversation(at, nil)
	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
	if len(s.Names) != 2 {
		t.Fatalf("expected 2 names, got %v", s.Names)
	}
}

func TestClone_NilYieldsEmpty(t *testing.T) {
	out := Clone(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}
