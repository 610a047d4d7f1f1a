package quiz

import (
	"errors"
	"time"
)

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// QuestionCount is how many questions the prompt asks for. The pipeline
	// returns however many valid items come back.
	QuestionCount int `yaml:"question_count"`

	// MaxTokens is the token budget for the completion response.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls completion randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`

	// StructuredOutput attaches QuestionListSchema to the request so
	// providers that support it constrain their output natively. The
	// response is validated either way.
	StructuredOutput bool `yaml:"structured_output"`

	// Retry configures WithRetry. MaxAttempts of 1 disables retrying.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig controls the retry decorator.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		QuestionCount: 5,
		MaxTokens:     2048,
		Temperature:   0.7,
		Retry:         DefaultRetryConfig(),
	}
}

// DefaultRetryConfig returns a config that does not retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 1,
		InitialWait: 1 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2.0,
	}
}

// Validate checks the config for values the generator cannot work with.
func (c Config) Validate() error {
	if c.QuestionCount < 1 {
		return errors.New("quiz: question_count must be at least 1")
	}
	if c.MaxTokens < 1 {
		return errors.New("quiz: max_tokens must be at least 1")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return errors.New("quiz: temperature must be between 0 and 1")
	}
	return c.Retry.Validate()
}

// Validate checks the retry settings.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return errors.New("quiz: retry max_attempts must be at least 1")
	}
	if c.InitialWait < 0 || c.MaxWait < 0 {
		return errors.New("quiz: retry waits must not be negative")
	}
	if c.Multiplier < 1 {
		return errors.New("quiz: retry multiplier must be at least 1")
	}
	return nil
}
