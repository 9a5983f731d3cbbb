// Package llmtest provides an in-memory LLMProvider for tests.
package llmtest

import (
	"context"
	"sync"

	"oreza-assistant-be/pkg/llm"
)

// ChatFunc decides the reply for one call.
type ChatFunc func(ctx context.Context, history []llm.Message, opts llm.Options) (string, error)

// Provider records every call and delegates the answer to Fn.
type Provider struct {
	Fn ChatFunc

	mu    sync.Mutex
	calls [][]llm.Message
	opts  []llm.Options
}

var _ llm.LLMProvider = (*Provider)(nil)

// Reply returns a provider that always answers text.
func Reply(text string) *Provider {
	return &Provider{Fn: func(context.Context, []llm.Message, llm.Options) (string, error) {
		return text, nil
	}}
}

// Fail returns a provider that always fails with err.
func Fail(err error) *Provider {
	return &Provider{Fn: func(context.Context, []llm.Message, llm.Options) (string, error) {
		return "", err
	}}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(llm.Options{}, options...)

	p.mu.Lock()
	cp := make([]llm.Message, len(history))
	copy(cp, history)
	p.calls = append(p.calls, cp)
	p.opts = append(p.opts, opts)
	p.mu.Unlock()

	return p.Fn(ctx, history, opts)
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

// Calls returns a copy of the recorded histories.
func (p *Provider) Calls() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]llm.Message, len(p.calls))
	copy(out, p.calls)
	return out
}

// LastOptions returns the options of the most recent call.
func (p *Provider) LastOptions() llm.Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.opts) == 0 {
		return llm.Options{}
	}
	return p.opts[len(p.opts)-1]
}
