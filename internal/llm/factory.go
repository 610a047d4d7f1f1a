package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/quizzler/internal/store"
)

// NewProvider creates a Provider from configuration.
// The base provider is wrapped as caller → logging → throttle → timeout → base,
// so logged latency includes time spent queued behind the throttle.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	timed := WithTimeout(base, cfg.Timeout)
	throttled := WithThrottle(timed, cfg.Throttle.RequestsPerMinute, cfg.Throttle.Burst)
	return WithLogging(throttled, eventRepo), nil
}
