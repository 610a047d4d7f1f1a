package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only
	UserID  string    // generation events only
	Outcome string    // generation events only
}

// LLMRequestEventData captures the data for a single completion request.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored completion request.
type LLMRequestEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStat aggregates completion usage for one purpose.
type LLMUsageStat struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsageStat aggregates completion usage for one model.
type ModelUsageStat struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// GenerationEventData records the outcome of one question generation call.
// Outcome is "ok" or the failure kind; Detail carries the diagnostic.
type GenerationEventData struct {
	UserID        string
	Topic         string
	Outcome       string
	Detail        string
	QuestionCount int
	LatencyMs     int64
}

// GenerationEvent is a stored generation outcome.
type GenerationEvent struct {
	ID        int
	Timestamp time.Time
	GenerationEventData
}

// EventRepo provides append and query access to operator events.
type EventRepo interface {
	// AppendLLMRequest records a completion call.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns completion calls, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one completion call, or nil if id is unknown.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsageStat, error)

	// AppendGeneration records a question generation outcome.
	AppendGeneration(ctx context.Context, data GenerationEventData) error

	// QueryGenerations returns generation outcomes, newest first.
	QueryGenerations(ctx context.Context, opts QueryOpts) ([]GenerationEvent, error)
}

// Progress is a user's running tally of correctly answered questions.
type Progress struct {
	UserID         string
	TotalQuestions int
	LastActive     time.Time
}

// ProgressRepo tracks per-user progress.
type ProgressRepo interface {
	// Track marks the user active now and returns their total, creating
	// the row on first sight.
	Track(ctx context.Context, userID string) (int, error)

	// Increment adds one correct answer and returns the new total.
	Increment(ctx context.Context, userID string) (int, error)

	// Get returns the user's progress, or nil if unknown.
	Get(ctx context.Context, userID string) (*Progress, error)

	// Top returns the n users with the highest totals.
	Top(ctx context.Context, n int) ([]Progress, error)
}

// Vote is a thumbs up or down on a question.
type Vote int

const (
	VoteDown Vote = -1
	VoteUp   Vote = 1
)

// RatingInput identifies the question being rated and the vote.
type RatingInput struct {
	QuestionID   string
	QuestionText string
	Topic        string
	Vote         Vote
}

// Rating is the vote tally for one question.
type Rating struct {
	QuestionID   string
	QuestionText string
	Topic        string
	Upvotes      int
	Downvotes    int
	UpdatedAt    time.Time
}

// RatingRepo stores question ratings.
type RatingRepo interface {
	// Rate applies a vote, creating the tally on the first vote.
	Rate(ctx context.Context, in RatingInput) (*Rating, error)

	// Get returns the tally for a question, or nil if never rated.
	Get(ctx context.Context, questionID string) (*Rating, error)

	// List returns the most recently rated questions.
	List(ctx context.Context, limit int) ([]Rating, error)
}

// SharedQuestion is the stored form of one question in a shared quiz.
type SharedQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// SharedQuiz is a snapshot of a generated quiz addressable by code.
type SharedQuiz struct {
	Code      string
	CreatedBy string
	Topic     string
	Questions []SharedQuestion
	CreatedAt time.Time
}

// ShareRepo stores shared quizzes.
type ShareRepo interface {
	// Save stores the quiz under a fresh share code and returns the code.
	Save(ctx context.Context, q SharedQuiz) (string, error)

	// Get returns the quiz for code, or nil if unknown.
	Get(ctx context.Context, code string) (*SharedQuiz, error)
}

// SessionRepo records when each user last started the app.
type SessionRepo interface {
	// Touch upserts the user's session refresh time.
	Touch(ctx context.Context, userID string) error

	// LastSeen returns the last refresh time, or the zero time if unknown.
	LastSeen(ctx context.Context, userID string) (time.Time, error)
}
