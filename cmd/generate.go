package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/session"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz and play it in the plain terminal",
	Long: `Generate one batch of questions for a topic and answer them line by line.

Useful for checking question quality without the full-screen UI. With --json the
validated batch is printed instead and no quiz is played.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("topic", "t", "", "Quiz topic (required)")
	generateCmd.Flags().StringP("user", "u", "cli", "Caller ID charged against the rate limiter")
	generateCmd.Flags().Bool("json", false, "Print the questions as JSON instead of playing")
	generateCmd.Flags().Int("retries", -1, "Retry attempts on service errors (default from config)")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	user, _ := cmd.Flags().GetString("user")
	asJSON, _ := cmd.Flags().GetBool("json")
	retries, _ := cmd.Flags().GetInt("retries")

	st, cfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if retries >= 0 {
		cfg.Quiz.Retry.MaxAttempts = retries + 1
	}

	ctx := context.Background()
	gen, closeGen, err := buildGenerator(ctx, cfg, st.EventRepo())
	if err != nil {
		return err
	}
	defer closeGen()

	if !asJSON {
		fmt.Printf("Generating questions about %s...\n\n", quiz.SanitizeTopic(topic))
	}
	questions, err := gen.Generate(ctx, topic, user)
	if err != nil {
		return fmt.Errorf("%s (%w)", quiz.UserMessage(err), err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(questions)
	}
	return playInTerminal(questions)
}

// playInTerminal asks each question on stdout and reads answers from stdin.
func playInTerminal(questions []quiz.Question) error {
	state := session.NewState(questions[0].Topic, questions)
	scanner := bufio.NewScanner(os.Stdin)

	for q := state.Current(); q != nil; q = state.Current() {
		fmt.Printf("── Question %d/%d ──\n", state.Index()+1, len(questions))
		fmt.Println(q.Text)
		for i, opt := range q.Options {
			fmt.Printf("  %d) %s\n", i+1, opt)
		}

		choice, ok := readChoice(scanner, len(q.Options))
		if !ok {
			fmt.Println("\n(input closed)")
			state.Finish()
			break
		}

		res, err := state.Answer(choice)
		if err != nil {
			return err
		}
		if res.Correct {
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			answer := "?"
			if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
				answer = q.Options[q.CorrectAnswer]
			}
			fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %s\n", answer)
		}
		fmt.Println()
		state.Advance()
	}

	sum := state.Summary()
	fmt.Printf("── Summary: %d/%d correct ──\n", sum.Correct, sum.TotalQuestions)
	return nil
}

// readChoice prompts until it gets a number in 1..n. It reports false when
// stdin is closed.
func readChoice(scanner *bufio.Scanner, n int) (int, bool) {
	for {
		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			return 0, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && v >= 1 && v <= n {
			return v - 1, true
		}
		fmt.Printf("Enter a number from 1 to %d.\n", n)
	}
}
