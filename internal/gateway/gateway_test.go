package gateway

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/classpilot/backend/internal/llm"
)

// fakeClient plays back a scripted sequence of provider responses and records
// every request it sees.
type fakeClient struct {
	script   []stub
	requests []llm.CompletionRequest
}

type stub struct {
	content string
	err     error
}

func (f *fakeClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	s := f.script[i]
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (f *fakeClient) calls() int { return len(f.requests) }

func newTestGateway(script ...stub) (*Gateway, *fakeClient) {
	client := &fakeClient{script: script}
	gw := New(client, Config{RetryAttempts: 3, RetryBaseDelay: time.Millisecond})
	return gw, client
}

func rateLimited() error {
	return &openai.APIError{HTTPStatusCode: 429, Message: "rate limit exceeded"}
}

func serverError() error {
	return &openai.APIError{HTTPStatusCode: 503, Message: "service unavailable"}
}

func badRequest() error {
	return &openai.APIError{HTTPStatusCode: 400, Message: "invalid request"}
}
