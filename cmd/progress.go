package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show players' correct-answer totals",
}

var progressShowCmd = &cobra.Command{
	Use:   "show <user>",
	Short: "Show one player's progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		p, err := s.ProgressRepo().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get progress: %w", err)
		}
		if p == nil {
			fmt.Printf("No progress recorded for %q.\n", args[0])
			return nil
		}

		lastSeen, err := s.SessionRepo().LastSeen(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		fmt.Printf("User:         %s\n", p.UserID)
		fmt.Printf("Correct:      %d\n", p.TotalQuestions)
		fmt.Printf("Last active:  %s\n", p.LastActive.Local().Format("2006-01-02 15:04:05"))
		if !lastSeen.IsZero() {
			fmt.Printf("Last session: %s\n", lastSeen.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var progressTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		top, err := s.ProgressRepo().Top(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query leaderboard: %w", err)
		}
		if len(top) == 0 {
			fmt.Println("No players yet.")
			return nil
		}

		fmt.Printf("%-4s  %-24s  %8s  %s\n", "#", "User", "Correct", "Last active")
		fmt.Println(strings.Repeat("─", 60))
		for i, p := range top {
			fmt.Printf("%-4d  %-24s  %8d  %s\n",
				i+1,
				truncate(p.UserID, 24),
				p.TotalQuestions,
				p.LastActive.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

func init() {
	progressTopCmd.Flags().IntP("limit", "n", 10, "Number of players to show")

	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressTopCmd)
}
