package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizzler/internal/ui/components"
	"github.com/abhisek/quizzler/internal/ui/layout"
	"github.com/abhisek/quizzler/internal/ui/theme"
)

func (s *PlayScreen) View(width, height int) string {
	switch s.phase {
	case PhaseLoading:
		return s.renderLoading(width, height)
	case PhaseError:
		return s.renderError(width, height)
	}
	return s.renderQuestion(width)
}

func (s *PlayScreen) renderLoading(width, height int) string {
	msg := fmt.Sprintf("Generating questions about %s...", s.Title())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Hint.Render(msg))
}

func (s *PlayScreen) renderError(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.ErrorText.Render(s.errMsg))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("Press r to try again, Esc to pick another topic"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func (s *PlayScreen) renderQuestion(width int) string {
	if s.state == nil {
		return ""
	}
	contentWidth := min(width-8, 72)

	var b strings.Builder
	b.WriteString("\n")

	sum := s.state.Summary()
	bar := components.NewProgressBar("Question", s.state.Index()+1, sum.TotalQuestions, contentWidth)
	b.WriteString(layout.Centered(bar.View(), width))
	b.WriteString("\n\n")

	card := theme.Card.Width(contentWidth).Render(s.choice.View())
	b.WriteString(layout.Centered(card, width))
	b.WriteString("\n")

	if s.phase == PhaseFeedback {
		b.WriteString(s.renderFeedback(width))
	}

	if s.saveErr != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(theme.ErrorText.Render(s.saveErr), width))
	}

	return b.String()
}

func (s *PlayScreen) renderFeedback(width int) string {
	var lines []string

	if s.choice.IsCorrect() {
		lines = append(lines, theme.Correct.Render("Correct!"))
	} else {
		q := s.state.Current()
		answer := ""
		if q != nil && q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
			answer = q.Options[q.CorrectAnswer]
		}
		lines = append(lines, theme.Incorrect.Render("Not quite. The answer was: "+answer))
	}

	switch {
	case s.rateMsg != "":
		lines = append(lines, theme.Faded.Render(s.rateMsg))
	case s.canRate():
		lines = append(lines, theme.Hint.Render("Was this a good question? + / -"))
	}

	if s.lastTotal >= 0 && !s.svc.Guest {
		lines = append(lines, theme.Faded.Render(fmt.Sprintf("Correct answers so far: %d", s.lastTotal)))
	}

	if s.limitReached {
		lines = append(lines, theme.WarningText.Render(msgGuestLimit))
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(layout.Centered(l, width))
	}
	b.WriteString("\n")
	return b.String()
}
