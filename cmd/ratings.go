package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Inspect player ratings of generated questions",
}

var ratingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently rated questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ratings, err := s.RatingRepo().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list ratings: %w", err)
		}
		if len(ratings) == 0 {
			fmt.Println("No ratings yet.")
			return nil
		}

		fmt.Printf("%4s  %4s  %-20s  %s\n", "Up", "Down", "Topic", "Question")
		fmt.Println(strings.Repeat("─", 90))
		for _, r := range ratings {
			fmt.Printf("%4d  %4d  %-20s  %s\n",
				r.Upvotes, r.Downvotes, truncate(r.Topic, 20), truncate(r.QuestionText, 60))
		}
		return nil
	},
}

func init() {
	ratingsListCmd.Flags().IntP("limit", "n", 20, "Number of questions to show")

	ratingsCmd.AddCommand(ratingsListCmd)
}
