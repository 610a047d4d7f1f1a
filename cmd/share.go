package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Look up shared quizzes",
}

var shareShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Print a shared quiz with its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		code := strings.ToUpper(strings.TrimSpace(args[0]))
		q, err := s.ShareRepo().Get(cmd.Context(), code)
		if err != nil {
			return fmt.Errorf("get shared quiz: %w", err)
		}
		if q == nil {
			return fmt.Errorf("no shared quiz with code %q", code)
		}

		fmt.Printf("Topic:   %s\n", q.Topic)
		if q.CreatedBy != "" {
			fmt.Printf("Shared:  %s by %s\n", q.CreatedAt.Local().Format("2006-01-02 15:04"), q.CreatedBy)
		}
		fmt.Println()

		for i, qq := range q.Questions {
			fmt.Printf("%d. %s\n", i+1, qq.Text)
			for j, opt := range qq.Options {
				mark := " "
				if j == qq.CorrectAnswer {
					mark = "✓"
				}
				fmt.Printf("   %s %c) %s\n", mark, 'A'+j, opt)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	shareCmd.AddCommand(shareShowCmd)
}
