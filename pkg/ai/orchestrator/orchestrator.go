package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	logModule      = "Orchestrator"
	instrumentName = "oreza-assistant-be/orchestrator"

	DefaultTimeout = 30 * time.Second

	// ApologyText is returned when every generator failed.
	ApologyText = "申し訳ございません。一時的なエラーが発生しました。"
	// TimeoutText is returned when the overall budget expired first.
	TimeoutText = "申し訳ございません。応答に時間がかかりすぎています。もう一度お試しください。"

	errorAllFailed = "all_failed"
	reasonTimeout  = "timeout"
)

// Metadata explains how the final text was chosen.
type Metadata struct {
	Strategy          Strategy `json:"strategy"`
	SelectedGenerator string   `json:"selected_model,omitempty"`
	Confidence        float64  `json:"confidence,omitempty"`
	Reasoning         string   `json:"reasoning,omitempty"`
	ValidGenerators   []string `json:"all_models,omitempty"`
	Judge             string   `json:"meta_ai,omitempty"`
	Fallback          bool     `json:"fallback,omitempty"`
	Error             string   `json:"error,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}

// Failed reports whether the result is the all_failed apology.
func (m Metadata) Failed() bool { return m.Error == errorAllFailed }

type Result struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Orchestrator fans one conversation out to its generators and returns
// exactly one answer. It never returns an error: every failure degrades
// to the apology result.
type Orchestrator struct {
	generators []Generator
	judge      Generator
	timeout    time.Duration
	persona    string
	logger     logger.ILogger

	tracer   trace.Tracer
	outcomes metric.Int64Counter
	latency  metric.Float64Histogram
}

type Option func(*Orchestrator)

func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithJudge sets the generator used by judge-merge.
func WithJudge(g Generator) Option {
	return func(o *Orchestrator) { o.judge = g }
}

// WithPersona sets the persona block opening the judge prompt.
func WithPersona(persona string) Option {
	return func(o *Orchestrator) { o.persona = persona }
}

// New registers generators in priority order. The first registered wins ties.
func New(log logger.ILogger, generators []Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generators: generators,
		timeout:    DefaultTimeout,
		logger:     log,
		tracer:     otel.Tracer(instrumentName),
	}
	for _, opt := range opts {
		opt(o)
	}

	meter := otel.Meter(instrumentName)
	var err error
	o.outcomes, err = meter.Int64Counter("assistant.orchestration.outcome",
		metric.WithDescription("Orchestration calls by strategy and outcome"))
	if err != nil {
		log.Warn(logModule, "Failed to create outcome counter", map[string]interface{}{"error": err.Error()})
	}
	o.latency, err = meter.Float64Histogram("assistant.generator.latency",
		metric.WithDescription("Generator call latency"),
		metric.WithUnit("s"))
	if err != nil {
		log.Warn(logModule, "Failed to create latency histogram", map[string]interface{}{"error": err.Error()})
	}
	return o
}

// Generators returns the registered generator ids in priority order.
func (o *Orchestrator) Generators() []string {
	ids := make([]string, len(o.generators))
	for i, g := range o.generators {
		ids[i] = g.ID()
	}
	return ids
}

// Orchestrate runs the strategy under the overall timeout.
func (o *Orchestrator) Orchestrate(ctx context.Context, messages []llm.Message, strategy Strategy) Result {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run", trace.WithAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.Int("generators", len(o.generators)),
		attribute.Int("messages", len(messages)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var res Result
	switch strategy {
	case SequentialFallback:
		res = o.sequential(ctx, messages)
	case JudgeMerge:
		res = o.judgeMerge(ctx, messages)
	default:
		strategy = ConcurrentRace
		res = o.race(ctx, messages)
	}
	res.Metadata.Strategy = strategy

	outcome := "selected"
	switch {
	case res.Metadata.Reason == reasonTimeout:
		outcome = reasonTimeout
	case res.Metadata.Failed():
		outcome = errorAllFailed
	case res.Metadata.Fallback:
		outcome = "fallback"
	case res.Metadata.Judge != "":
		outcome = "judged"
	}
	span.SetAttributes(
		attribute.Int("valid", len(res.Metadata.ValidGenerators)),
		attribute.String("outcome", outcome),
		attribute.String("selected", res.Metadata.SelectedGenerator),
	)
	if res.Metadata.Failed() {
		span.SetStatus(codes.Error, outcome)
	}
	if o.outcomes != nil {
		o.outcomes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("strategy", string(strategy)),
			attribute.String("outcome", outcome),
		))
	}
	return res
}

func (o *Orchestrator) race(ctx context.Context, messages []llm.Message) Result {
	candidates, err := o.gather(ctx, messages)
	if err != nil {
		return o.failed(err)
	}
	if len(candidates) == 0 {
		return o.failed(ErrAllFailed)
	}
	return selected(candidates)
}

func (o *Orchestrator) sequential(ctx context.Context, messages []llm.Message) Result {
	for _, g := range o.generators {
		if ctx.Err() != nil {
			return o.failed(ctx.Err())
		}
		c, err := o.bounded(ctx, g, messages)
		if err != nil {
			return o.failed(err)
		}
		if c != nil {
			return selected([]*Candidate{c})
		}
	}
	if ctx.Err() != nil {
		return o.failed(ctx.Err())
	}
	return o.failed(ErrAllFailed)
}

// bounded runs one generator but stops waiting when ctx expires, so a
// backend that ignores cancellation cannot hold the call past the budget.
// A nil candidate with a nil error is an ordinary adapter failure.
func (o *Orchestrator) bounded(ctx context.Context, g Generator, messages []llm.Message, opts ...llm.Option) (*Candidate, error) {
	out := make(chan *Candidate, 1)
	go func() {
		out <- o.call(ctx, g, messages, opts...)
	}()

	select {
	case c := <-out:
		return c, nil
	case <-ctx.Done():
		select {
		case c := <-out:
			return c, nil
		default:
			return nil, ctx.Err()
		}
	}
}

// gather runs every generator concurrently and returns the valid candidates
// in registration order. If the deadline expires before all generators
// return, the round is abandoned.
func (o *Orchestrator) gather(ctx context.Context, messages []llm.Message) ([]*Candidate, error) {
	results := make([]*Candidate, len(o.generators))

	var g errgroup.Group
	for i, gen := range o.generators {
		g.Go(func() error {
			results[i] = o.call(ctx, gen, messages)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		default:
			return nil, ctx.Err()
		}
	}

	var valid []*Candidate
	for _, c := range results {
		if c != nil {
			valid = append(valid, c)
		}
	}
	return valid, nil
}

// call invokes one generator and returns nil for any failure, panics included.
func (o *Orchestrator) call(ctx context.Context, g Generator, messages []llm.Message, opts ...llm.Option) (c *Candidate) {
	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrAdapterFailure, g.ID(), r)
			c = nil
		}
		if o.latency != nil {
			o.latency.Record(context.WithoutCancel(ctx), time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("generator", g.ID()),
				attribute.Bool("ok", c != nil),
			))
		}
		if err != nil {
			o.logger.Warn(logModule, "Generator failed", map[string]interface{}{
				"generator": g.ID(),
				"error":     err.Error(),
			})
		}
	}()

	c, err = g.Generate(ctx, messages, opts...)
	if err == nil && !c.valid() {
		err = fmt.Errorf("%w: %s: unusable candidate", ErrAdapterFailure, g.ID())
	}
	if err != nil {
		return nil
	}
	return c
}

func (o *Orchestrator) failed(err error) Result {
	meta := Metadata{Error: errorAllFailed}
	text := ApologyText
	if errors.Is(err, context.DeadlineExceeded) {
		meta.Reason = reasonTimeout
		text = TimeoutText
	} else if errors.Is(err, context.Canceled) {
		meta.Reason = "canceled"
	}

	o.logger.Error(logModule, "All generators failed", map[string]interface{}{
		"error":  err.Error(),
		"reason": meta.Reason,
	})
	return Result{Text: text, Metadata: meta}
}

// selected picks the strictly highest confidence; earlier candidates win ties.
func selected(candidates []*Candidate) Result {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return Result{
		Text: best.Content,
		Metadata: Metadata{
			SelectedGenerator: best.GeneratorID,
			Confidence:        best.Confidence,
			Reasoning:         best.Reasoning,
			ValidGenerators:   candidateIDs(candidates),
		},
	}
}

func candidateIDs(candidates []*Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.GeneratorID
	}
	return ids
}
