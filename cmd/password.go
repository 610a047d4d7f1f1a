package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/abhisek/quizzler/internal/credentials"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Password tools",
}

var passwordCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a password against the account requirements",
	Long: `Check a password against the account requirements.

The password is read from the terminal without echo, or from stdin when it is
not a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readPassword()
		if err != nil {
			return err
		}

		res := credentials.Check(pw)
		for _, r := range res.Requirements {
			mark := "\033[31m✗\033[0m"
			if r.Met {
				mark = "\033[32m✓\033[0m"
			}
			fmt.Printf("  %s %s\n", mark, r.Label)
		}

		if !res.Valid {
			return errors.New("password does not meet the requirements")
		}
		fmt.Println("\nPassword OK.")
		return nil
	},
}

// readPassword reads one line from stdin, hiding input on a terminal.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	passwordCmd.AddCommand(passwordCheckCmd)
}
