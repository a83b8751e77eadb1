package llm_test

import (
	"context"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// mockChatCompleter records requests and returns scripted responses.
type mockChatCompleter struct {
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
	content  string
	err      error
}

func (m *mockChatCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: m.content}}},
	}, nil
}

func (m *mockChatCompleter) last() openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// mockContentGenerator returns a canned Gemini response.
type mockContentGenerator struct {
	mu      sync.Mutex
	configs []*genai.GenerateContentConfig
	text    string
	err     error
}

func (m *mockContentGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = append(m.configs, cfg)
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(m.text, genai.RoleModel),
		}},
	}, nil
}
