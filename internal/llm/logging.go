package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abhisek/quizzler/internal/metrics"
	"github.com/abhisek/quizzler/internal/store"
)

// LoggingProvider is a decorator that records every completion request as
// an event and counts it in the completion metrics.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with event logging. A nil repo still counts
// requests but records nothing.
func WithLogging(p Provider, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CompletionRequests.WithLabelValues(l.inner.ModelID(), status).Inc()

	if l.eventRepo == nil {
		return resp, err
	}

	data := store.LLMRequestEventData{
		Provider:    providerName(l.inner),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = resp.Content
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		// Truncated output is still worth keeping for diagnosis.
		var mt *ErrMaxTokensExceeded
		if errors.As(err, &mt) {
			data.ResponseBody = mt.Content
		}
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request event: %v\n", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// providerName names the SDK family behind p, looking through decorators.
func providerName(p Provider) string {
	for {
		switch v := p.(type) {
		case *AnthropicProvider:
			return "anthropic"
		case *OpenRouterProvider:
			return "openrouter"
		case *OpenAIProvider:
			return "openai"
		case *GeminiProvider:
			return "gemini"
		case *MockProvider:
			return "mock"
		case interface{ Unwrap() Provider }:
			p = v.Unwrap()
		default:
			return "unknown"
		}
	}
}

// serializeRequest builds a readable representation of the completion request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
