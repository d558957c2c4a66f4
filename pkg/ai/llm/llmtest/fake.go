// Package llmtest provides a scripted llm.LLMClient for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jordanlanch/beautyos/pkg/ai/llm"
)

// ErrExhausted is returned once every scripted reply was consumed.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Fake replays Replies in order. When Handler is set it wins.
type Fake struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Handler func(req llm.ChatRequest) (string, error)
	Calls   []llm.ChatRequest
}

// New returns a fake that answers with replies in order.
func New(replies ...string) *Fake {
	return &Fake{Replies: replies}
}

// Chat implements llm.LLMClient.
func (f *Fake) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, req)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Handler != nil {
		msg, err := f.Handler(req)
		if err != nil {
			return nil, err
		}
		return &llm.ChatResponse{Message: msg, FinishReason: "stop"}, nil
	}
	if len(f.Replies) == 0 {
		return nil, ErrExhausted
	}
	msg := f.Replies[0]
	f.Replies = f.Replies[1:]
	return &llm.ChatResponse{Message: msg, FinishReason: "stop"}, nil
}

// Complete implements llm.LLMClient.
func (f *Fake) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	msgs := []llm.ChatMessage{{Role: "user", Content: prompt}}
	if len(systemPrompt) > 0 {
		msgs = append([]llm.ChatMessage{{Role: "system", Content: systemPrompt[0]}}, msgs...)
	}
	resp, err := f.Chat(ctx, llm.ChatRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CallCount returns how many requests were made.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// SystemPrompt returns the system message of call i.
func (f *Fake) SystemPrompt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Calls[i].Messages {
		if m.Role == "system" {
			return m.Content
		}
	}
	return ""
}

// UserMessage returns the user message of call i.
func (f *Fake) UserMessage(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Calls[i].Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}
