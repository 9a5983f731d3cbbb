package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"oreza-assistant-be/pkg/llm"
)

var (
	// ErrAdapterFailure marks a generator that raised or returned unusable content.
	ErrAdapterFailure = errors.New("orchestrator: adapter failure")
	// ErrAllFailed is reported when no generator produced a usable candidate.
	ErrAllFailed = errors.New("orchestrator: all generators failed")
)

// Candidate is one generator's scored answer. Confidence 0 means failed.
type Candidate struct {
	GeneratorID string            `json:"model"`
	Content     string            `json:"content"`
	Confidence  float64           `json:"confidence"`
	Reasoning   string            `json:"reasoning"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (c *Candidate) valid() bool {
	return c != nil && c.Confidence > 0 && strings.TrimSpace(c.Content) != ""
}

// Generator is a uniform wrapper around one text-generation backend.
type Generator interface {
	ID() string
	Generate(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*Candidate, error)
}

// LLMGenerator adapts an llm.LLMProvider with a fixed confidence and rationale.
type LLMGenerator struct {
	id         string
	provider   llm.LLMProvider
	confidence float64
	reasoning  string
}

var _ Generator = (*LLMGenerator)(nil)

func NewLLMGenerator(id string, provider llm.LLMProvider, confidence float64, reasoning string) *LLMGenerator {
	return &LLMGenerator{
		id:         id,
		provider:   provider,
		confidence: confidence,
		reasoning:  reasoning,
	}
}

func (g *LLMGenerator) ID() string { return g.id }

// Generate never returns a nil candidate. On failure the candidate carries
// confidence 0 and the error text in its metadata.
func (g *LLMGenerator) Generate(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*Candidate, error) {
	text, err := g.provider.Chat(ctx, messages, opts...)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		return &Candidate{
			GeneratorID: g.id,
			Metadata:    map[string]string{"error": err.Error()},
		}, fmt.Errorf("%w: %s: %v", ErrAdapterFailure, g.id, err)
	}

	return &Candidate{
		GeneratorID: g.id,
		Content:     text,
		Confidence:  g.confidence,
		Reasoning:   g.reasoning,
	}, nil
}
