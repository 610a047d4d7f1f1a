// Package topic implements the start screen: the player's dashboard and
// the topic prompt.
package topic

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/router"
	"github.com/abhisek/quizzler/internal/screen"
	"github.com/abhisek/quizzler/internal/screens/play"
	"github.com/abhisek/quizzler/internal/session"
	"github.com/abhisek/quizzler/internal/ui/components"
	"github.com/abhisek/quizzler/internal/ui/layout"
	"github.com/abhisek/quizzler/internal/ui/theme"
)

// dashboardMsg carries the player's total loaded from the store.
type dashboardMsg struct {
	Total int
	Err   error
}

// TopicScreen asks for a topic and starts a quiz.
type TopicScreen struct {
	svc    screen.Services
	input  components.TextInput
	total  int
	loaded bool
	errMsg string
}

var _ screen.Screen = (*TopicScreen)(nil)
var _ screen.KeyHintProvider = (*TopicScreen)(nil)
var _ screen.Resumer = (*TopicScreen)(nil)

// New creates a TopicScreen.
func New(svc screen.Services) *TopicScreen {
	return &TopicScreen{
		svc:   svc,
		input: components.NewTextInput("e.g. Ancient Rome, photosynthesis, jazz", quiz.MaxTopicLength),
		total: -1,
	}
}

func (s *TopicScreen) Init() tea.Cmd {
	return tea.Batch(s.input.Init(), s.loadDashboard())
}

func (s *TopicScreen) Title() string {
	return "New Quiz"
}

func (s *TopicScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start quiz"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Total returns the player's correct-answer total, or -1 if unknown.
func (s *TopicScreen) Total() int {
	return s.total
}

// Resume refreshes the dashboard when the player comes back from a quiz.
func (s *TopicScreen) Resume() tea.Cmd {
	return tea.Batch(s.input.Init(), s.loadDashboard())
}

// loadDashboard records the visit and fetches the running total.
func (s *TopicScreen) loadDashboard() tea.Cmd {
	if s.svc.Guest || s.svc.Progress == nil {
		return nil
	}
	repo, user := s.svc.Progress, s.svc.UserID
	return func() tea.Msg {
		total, err := repo.Track(context.Background(), user)
		return dashboardMsg{Total: total, Err: err}
	}
}

func (s *TopicScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = "Could not load your progress."
			return s, nil
		}
		s.total = msg.Total
		total := msg.Total
		return s, func() tea.Msg { return screen.ProgressMsg{Total: total} }

	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s.submit()
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *TopicScreen) submit() (screen.Screen, tea.Cmd) {
	raw := s.input.Value()
	if quiz.SanitizeTopic(raw) == "" {
		s.errMsg = quiz.UserMessage(quiz.ErrEmptyTopic)
		return s, nil
	}
	if s.svc.Allowance != nil && s.svc.Allowance.Exhausted() {
		s.errMsg = guestLimitMessage
		return s, nil
	}
	s.errMsg = ""
	s.input.Reset()
	next := play.New(s.svc, raw)
	return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

const guestLimitMessage = "Guest limit reached. Restart with --user to keep playing and save your progress."

func (s *TopicScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("What do you want to be quizzed on?"))
	b.WriteString("\n\n")

	box := theme.Card.Width(min(width-8, 64)).Render(s.input.View())
	b.WriteString(layout.Centered(box, width))
	b.WriteString("\n\n")

	b.WriteString(theme.Subtitle.Width(width).Render(s.dashboardLine()))
	b.WriteString("\n")

	if s.svc.Guest {
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.WarningText.Render(s.guestLine()), width))
		b.WriteString("\n")
	}

	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.ErrorText.Render(s.errMsg), width))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Height(height).Render(b.String())
}

func (s *TopicScreen) dashboardLine() string {
	switch {
	case s.svc.Guest:
		return "Playing as guest. Progress is not saved."
	case s.svc.Progress == nil:
		return ""
	case !s.loaded && s.total < 0:
		return "Loading your progress..."
	case s.total < 0:
		return ""
	case s.total == 1:
		return "You have answered 1 question correctly so far."
	default:
		return fmt.Sprintf("You have answered %d questions correctly so far.", s.total)
	}
}

func (s *TopicScreen) guestLine() string {
	if s.svc.Allowance == nil || !s.svc.Allowance.Limited() {
		return ""
	}
	if s.svc.Allowance.Exhausted() {
		return guestLimitMessage
	}
	return fmt.Sprintf("Guests can answer %d questions (%d left).",
		session.GuestQuestionLimit, s.svc.Allowance.Remaining())
}
