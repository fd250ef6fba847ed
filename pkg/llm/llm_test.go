package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMockProvider(t *testing.T) {
	mock := &MockProvider{Response: "Hello world"}
	resp, err := mock.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "Hello world" {
		t.Errorf("Expected 'Hello world', got '%s'", resp.Content)
	}
}

func TestScriptedProvider(t *testing.T) {
	p := NewScripted("first", "second")

	resp, err := p.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "first" {
		t.Errorf("Expected 'first', got '%s'", resp.Content)
	}

	resp, _ = p.Chat(context.Background(), ChatRequest{})
	if resp.Content != "second" {
		t.Errorf("Expected 'second', got '%s'", resp.Content)
	}

	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Error("Expected error after queue exhausted")
	}
	if p.CallCount != 3 {
		t.Errorf("Expected 3 calls, got %d", p.CallCount)
	}
}

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"role":"assistant","content":"done"},"done":true,"eval_count":5,"prompt_eval_count":7}`))
	}))
	defer srv.Close()

	p := NewOllama(srv.URL)
	resp, err := p.Chat(context.Background(), ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "go"}},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("Expected 'done', got '%s'", resp.Content)
	}
	if resp.Usage.TotalTokens != 12 {
		t.Errorf("Expected 12 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestOllamaChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllama(srv.URL)
	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Error("Expected error on 500 status")
	}
}
