package service

import (
	"context"
	"sync"
	"time"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/internal/repository/memory"
	"oreza-assistant-be/pkg/ai/classifier"
	"oreza-assistant-be/pkg/ai/orchestrator"
	"oreza-assistant-be/pkg/calendar/intent"
	"oreza-assistant-be/pkg/events"
	"oreza-assistant-be/pkg/llm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type fakeOrchestrator struct {
	reply    string
	failed   bool
	calls    [][]llm.Message
	strategy orchestrator.Strategy
}

func (f *fakeOrchestrator) Orchestrate(_ context.Context, messages []llm.Message, strategy orchestrator.Strategy) orchestrator.Result {
	f.calls = append(f.calls, messages)
	f.strategy = strategy
	if f.failed {
		return orchestrator.Result{
			Text:     orchestrator.ApologyText,
			Metadata: orchestrator.Metadata{Strategy: strategy, Error: "all_failed"},
		}
	}
	return orchestrator.Result{
		Text:     f.reply,
		Metadata: orchestrator.Metadata{Strategy: strategy, SelectedGenerator: "fake", Confidence: 0.9},
	}
}

func (f *fakeOrchestrator) lastCall() []llm.Message {
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type fakeClassifier struct {
	analysis classifier.Analysis
	err      error
	calls    int
	excerpts [][]llm.Message
}

func (f *fakeClassifier) Classify(_ context.Context, excerpt []llm.Message) (classifier.Analysis, error) {
	f.calls++
	f.excerpts = append(f.excerpts, excerpt)
	if f.err != nil {
		return classifier.Neutral(), f.err
	}
	return f.analysis, nil
}

type fakeSearcher struct {
	info string
}

func (f *fakeSearcher) Lookup(context.Context, string) (string, bool) {
	return f.info, f.info != ""
}

type stubTranslator struct {
	cmd intent.Command
	err error
	got intent.Context
}

func (s *stubTranslator) Translate(_ context.Context, _ string, tc intent.Context) (intent.Command, error) {
	s.got = tc
	return s.cmd, s.err
}

func newTestSessions(pub IPublisherService) (ISessionService, *memory.SessionRepository) {
	repo := memory.NewSessionRepository(0, time.Minute)
	return NewSessionService(repo, pub, logger.NewNopLogger()), repo
}
