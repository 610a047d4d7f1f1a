package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizzler/internal/llm"
	"github.com/abhisek/quizzler/internal/metrics"
	"github.com/abhisek/quizzler/internal/ratelimit"
	"github.com/abhisek/quizzler/internal/store"
)

// OutcomeOK is the outcome recorded for a successful generation.
const OutcomeOK = "ok"

// GenerationLog receives one record per Generate call that passed the
// topic check. store.EventRepo satisfies it.
type GenerationLog interface {
	AppendGeneration(ctx context.Context, data store.GenerationEventData) error
}

// LLMGenerator implements Generator on top of a completion provider,
// gated by a per-caller rate limiter.
type LLMGenerator struct {
	provider llm.Provider
	limiter  ratelimit.Limiter
	config   Config
	schema   *llm.Schema
	log      GenerationLog
	newID    func() string
	now      func() time.Time
}

// Option customizes an LLMGenerator.
type Option func(*LLMGenerator)

// WithGenerationLog records every outcome to log.
func WithGenerationLog(log GenerationLog) Option {
	return func(g *LLMGenerator) { g.log = log }
}

// New creates an LLMGenerator. The limiter is consulted once per call
// before the provider is contacted.
func New(provider llm.Provider, limiter ratelimit.Limiter, cfg Config, opts ...Option) *LLMGenerator {
	g := &LLMGenerator{
		provider: provider,
		limiter:  limiter,
		config:   cfg,
		schema:   QuestionListSchema,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a validated batch of questions about topic for callerID.
func (g *LLMGenerator) Generate(ctx context.Context, topic, callerID string) ([]Question, error) {
	clean := SanitizeTopic(topic)
	if clean == "" {
		return nil, ErrEmptyTopic
	}

	if !g.limiter.TryConsume(callerID) {
		err := &GenerationError{Kind: KindRateLimited}
		g.record(ctx, callerID, clean, nil, err, 0)
		return nil, err
	}

	start := g.now()
	questions, err := g.generate(ctx, clean)
	latency := g.now().Sub(start)
	metrics.GenerationLatency.Observe(latency.Seconds())
	g.record(ctx, callerID, clean, questions, err, latency)

	return questions, err
}

func (g *LLMGenerator) generate(ctx context.Context, topic string) ([]Question, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPrompt(topic, g.config.QuestionCount)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if g.config.StructuredOutput {
		req.Schema = g.schema
	}

	resp, err := g.provider.Generate(ctx, req)
	var truncated *llm.ErrMaxTokensExceeded
	switch {
	case errors.As(err, &truncated):
		// A cut-off body is a bad response, not a transport failure.
		return nil, &GenerationError{
			Kind:   KindMalformedResponse,
			Detail: fmt.Sprintf("%v after %d bytes", err, len(truncated.Content)),
			Err:    err,
		}
	case err != nil:
		return nil, &GenerationError{Kind: KindServiceError, Detail: err.Error(), Err: err}
	}

	return g.parse(resp.Content, topic)
}

// parse turns raw completion text into questions. The whole batch is
// rejected if any item fails validation.
func (g *LLMGenerator) parse(content, topic string) ([]Question, error) {
	body := []byte(StripControl(content))

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &GenerationError{Kind: KindMalformedResponse, Detail: err.Error(), Err: err}
	}

	if err := llm.ValidateSchema(g.schema, parsed); err != nil {
		detail := err.Error()
		var sv *llm.ErrSchemaViolation
		if errors.As(err, &sv) {
			detail = sv.Detail
		}
		return nil, &GenerationError{Kind: KindSchemaViolation, Detail: detail, Err: err}
	}

	items, err := questionsFrom(parsed)
	if err != nil {
		return nil, &GenerationError{Kind: KindSchemaViolation, Detail: err.Error(), Err: err}
	}

	questions := make([]Question, len(items))
	for i, w := range items {
		questions[i] = Question{
			ID:            g.newID(),
			Text:          w.Text,
			Options:       w.Options,
			CorrectAnswer: w.CorrectAnswer,
			Topic:         topic,
		}
	}
	return questions, nil
}

func (g *LLMGenerator) record(ctx context.Context, callerID, topic string, qs []Question, err error, latency time.Duration) {
	outcome := OutcomeOK
	var detail string
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		detail = err.Error()
		var ge *GenerationError
		if errors.As(err, &ge) && ge.Detail != "" {
			detail = ge.Detail
		}
	}
	metrics.Generations.WithLabelValues(outcome).Inc()

	if g.log == nil {
		return
	}
	data := store.GenerationEventData{
		UserID:        callerID,
		Topic:         topic,
		Outcome:       outcome,
		Detail:        detail,
		QuestionCount: len(qs),
		LatencyMs:     latency.Milliseconds(),
	}
	if lerr := g.log.AppendGeneration(context.WithoutCancel(ctx), data); lerr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record generation: %v\n", lerr)
	}
}
