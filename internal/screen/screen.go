package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/session"
	"github.com/abhisek/quizzler/internal/store"
	"github.com/abhisek/quizzler/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is an optional interface for screens that refresh themselves when
// they become active again after the screens above them are popped.
type Resumer interface {
	Resume() tea.Cmd
}

// ProgressMsg announces the player's current correct-answer total.
type ProgressMsg struct {
	Total int
}

// Services carries the dependencies screens need. Repositories may be nil
// when no database is available; screens then skip the feature.
type Services struct {
	Generator quiz.Generator
	Progress  store.ProgressRepo
	Ratings   store.RatingRepo
	Shares    store.ShareRepo

	// UserID identifies the player to the limiter and the store.
	UserID string

	// Guest is true when no user was given. Guests have no saved progress
	// and a capped number of answers.
	Guest     bool
	Allowance *session.Allowance
}
