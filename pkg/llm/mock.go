// Copyright 2026 © The OpenCACM Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"errors"
	"sync"
)

// MockProvider is a testing implementation of Provider.
type MockProvider struct {
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}, nil
}

// ScriptedProvider returns a pre-defined sequence of responses. Useful for
// testing multi-step prompt skills.
type ScriptedProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	CallCount int
}

// NewScripted creates a ScriptedProvider with the given response queue.
func NewScripted(responses ...string) *ScriptedProvider {
	return &ScriptedProvider{Responses: responses}
}

// Chat pops the next scripted response or returns the configured error.
func (s *ScriptedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Responses) == 0 {
		return nil, errors.New("scripted provider: no more responses")
	}

	content := s.Responses[0]
	s.Responses = s.Responses[1:]
	return &ChatResponse{
		Content: content,
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}, nil
}

// AddResponse appends a response to the queue.
func (s *ScriptedProvider) AddResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, response)
}
