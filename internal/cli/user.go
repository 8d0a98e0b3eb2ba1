package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hnrobert/ftpmgr/internal/logger"
)

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errEmptyPassword    = errors.New("password must not be empty")
	errNoTerminal       = errors.New("stdin is not a terminal; use --password-stdin")
)

func newUserCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage FTP users",
	}

	var fromStdin bool
	passwd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set the password of an FTP user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			h, err := e.hasher()
			if err != nil {
				return err
			}
			hash, err := h.Hash(pw)
			if err != nil {
				return err
			}

			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SetPassword(cmd.Context(), args[0], hash); err != nil {
				return fmt.Errorf("set password for %s: %w", args[0], err)
			}
			logger.Info("password updated for ftp user %s", args[0])
			success(cmd.OutOrStdout(), "Password updated for %s. Run deploy to publish it.", args[0])
			return nil
		},
	}
	passwd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from the first line of stdin")

	cmd.AddCommand(passwd)
	return cmd
}

func newHashCommand(e *env) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the crypt(3) hash of a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			h, err := e.hasher()
			if err != nil {
				return err
			}
			hash, err := h.Hash(pw)
			if err != nil {
				return err
			}
			say(cmd.OutOrStdout(), "%s", hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from the first line of stdin")
	return cmd
}

// readPassword reads one line from the command input with fromStdin, and
// otherwise prompts twice on the terminal without echo.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		return readPasswordLine(cmd.InOrStdin())
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	prompt := cmd.ErrOrStderr()
	fmt.Fprint(prompt, "New password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	fmt.Fprint(prompt, "Retype new password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	return confirmPassword(string(first), string(second))
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errEmptyPassword
	}
	return line, nil
}

func confirmPassword(first, second string) (string, error) {
	if first == "" {
		return "", errEmptyPassword
	}
	if first != second {
		return "", errPasswordMismatch
	}
	return first, nil
}
