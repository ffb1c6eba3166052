package completion

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New("", Options{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := c.(*OpenAI); !ok {
		t.Fatalf("expected OpenAI for empty provider, got %T", c)
	}

	c, err = New("Anthropic", Options{APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := c.(*Anthropic); !ok {
		t.Fatalf("expected Anthropic, got %T", c)
	}

	if _, err := New("llama", Options{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestDefaultModel(t *testing.T) {
	if got := DefaultModel("openai"); got != "gpt-3.5-turbo" {
		t.Fatalf("unexpected openai default %q", got)
	}
	if got := DefaultModel("anthropic"); got != DefaultAnthropicModel {
		t.Fatalf("unexpected anthropic default %q", got)
	}
}

func TestErrorMessageIncludesKindAndStatus(t *testing.T) {
	err := &Error{Provider: "openai", Kind: KindService, StatusCode: 401, Err: errors.New("bad key")}
	msg := err.Error()
	for _, want := range []string{"openai", "service", "401", "bad key"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Fatal("expected zero kind for foreign error")
	}
}
