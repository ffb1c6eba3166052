package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	configpkg "github.com/minhyannv/chatbot-go/pkg/config"
	"github.com/minhyannv/chatbot-go/pkg/history"
)

const chatReply = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",` +
	`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" pong "}}]}`

func newFakeOpenAI(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(dataDir, baseURL string) configpkg.Config {
	cfg := configpkg.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.BaseURL = baseURL
	cfg.NoColor = true
	return cfg
}

func TestRun_MissingCredentialFailsBeforePrompt(t *testing.T) {
	clearEnv(t)
	srv, hits := newFakeOpenAI(t, 200, chatReply)

	var out, errOut strings.Builder
	code := run(context.Background(), testConfig(t.TempDir(), srv.URL+"/v1/"), strings.NewReader("ping\n"), &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no prompt output, got %q", out.String())
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Fatalf("expected no network calls, got %d", *hits)
	}
	if !strings.Contains(errOut.String(), "config.json") {
		t.Fatalf("expected error naming config file, got %q", errOut.String())
	}
}

func TestRun_PersistsContextAndConversation(t *testing.T) {
	clearEnv(t)
	srv, hits := newFakeOpenAI(t, 200, chatReply)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"openai_api_key": "sk-test"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out, errOut strings.Builder
	code := run(context.Background(), testConfig(dir, srv.URL+"/v1/"), strings.NewReader("ping\nexit\n"), &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, errOut.String())
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Fatalf("expected one request, got %d", *hits)
	}
	if !strings.Contains(out.String(), "Bot: pong\n") {
		t.Fatalf("unexpected output %q", out.String())
	}

	b, err := os.ReadFile(filepath.Join(dir, "context.json"))
	if err != nil {
		t.Fatalf("read context: %v", err)
	}
	var ctxMsgs []history.Message
	if err := json.Unmarshal(b, &ctxMsgs); err != nil {
		t.Fatalf("decode context: %v", err)
	}
	if len(ctxMsgs) != 2 || ctxMsgs[0] != history.UserMessage("ping") || ctxMsgs[1] != history.AssistantMessage("pong") {
		t.Fatalf("unexpected context %+v", ctxMsgs)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "conversations"))
	if err != nil {
		t.Fatalf("read conversations: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "conversation_") {
		t.Fatalf("expected one archived conversation, got %v", entries)
	}
}

func TestRun_CompletionFailureStillExitsZero(t *testing.T) {
	clearEnv(t)
	srv, _ := newFakeOpenAI(t, 401, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	dir := t.TempDir()

	cfg := testConfig(dir, srv.URL+"/v1/")
	cfg.APIKey = "sk-bad"

	var out, errOut strings.Builder
	code := run(context.Background(), cfg, strings.NewReader("ping\nnever\n"), &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "Error: ") {
		t.Fatalf("expected error on console, got %q", out.String())
	}

	store := history.NewFileStore(filepath.Join(dir, "context.json"), filepath.Join(dir, "conversations"))
	ctxMsgs, err := store.LoadContext()
	if err != nil {
		t.Fatalf("load context: %v", err)
	}
	if len(ctxMsgs) != 1 || ctxMsgs[0] != history.UserMessage("ping") {
		t.Fatalf("expected dangling user message, got %+v", ctxMsgs)
	}
}
