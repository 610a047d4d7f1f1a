package quiz

import (
	"errors"
	"fmt"
)

// Kind classifies why a generation call failed.
type Kind string

const (
	KindRateLimited       Kind = "rate_limited"
	KindServiceError      Kind = "service_error"
	KindMalformedResponse Kind = "malformed_response"
	KindSchemaViolation   Kind = "schema_violation"
)

// GenerationError is returned by Generate for every failure after the
// topic has been accepted. All kinds are terminal for the call.
type GenerationError struct {
	Kind Kind

	// Detail is the operator-facing diagnostic: the service message for
	// KindServiceError, the parser or validator output otherwise.
	Detail string

	Err error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return "rate limit exceeded"
	case KindServiceError:
		return fmt.Sprintf("completion service error: %s", e.Detail)
	case KindMalformedResponse:
		return fmt.Sprintf("malformed completion response: %s", e.Detail)
	case KindSchemaViolation:
		return fmt.Sprintf("completion response violates question schema: %s", e.Detail)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Detail)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches any *GenerationError of the same Kind, so the sentinels below
// work with errors.Is.
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrRateLimited       = &GenerationError{Kind: KindRateLimited}
	ErrServiceError      = &GenerationError{Kind: KindServiceError}
	ErrMalformedResponse = &GenerationError{Kind: KindMalformedResponse}
	ErrSchemaViolation   = &GenerationError{Kind: KindSchemaViolation}
)

// ErrEmptyTopic is returned before admission when the topic has nothing left
// after sanitization. No rate limit token is spent.
var ErrEmptyTopic = errors.New("topic is empty")

// Messages shown to the user.
const (
	msgRateLimited   = "Too many requests. Please try again later."
	msgInvalidFormat = "Invalid question format from AI"
	msgEmptyTopic    = "Please enter a topic."
)

// KindOf returns the failure kind of err, or "" if err is not a
// *GenerationError.
func KindOf(err error) Kind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// UserMessage maps a Generate error to the text shown to the user. Parser
// and validator diagnostics are never shown; they go to the generation log.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyTopic) {
		return msgEmptyTopic
	}
	var ge *GenerationError
	if !errors.As(err, &ge) {
		return err.Error()
	}
	switch ge.Kind {
	case KindRateLimited:
		return msgRateLimited
	case KindServiceError:
		return ge.Detail
	default:
		return msgInvalidFormat
	}
}
