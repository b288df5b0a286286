package app

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kandinsky-studio/design-shop/internal/auth"
)

// ErrEmptyPassword is returned when hash-password gets no input.
var ErrEmptyPassword = errors.New("password must not be empty")

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(hashPasswordCmd)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the argon2id hash for auth.local.passwordHash",
	Long: `Print the argon2id hash of the given password. Without an argument
the password is read from the first line of stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string

		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return ErrEmptyPassword
			}

			password = strings.TrimRight(line, "\r\n")
		}

		if password == "" {
			return ErrEmptyPassword
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)

		return err
	},
}
