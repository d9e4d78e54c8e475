package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"resumetracker/internal/auth"
	"resumetracker/internal/common"
	"resumetracker/internal/errors"
	"resumetracker/internal/types"
)

func newLoginCmd(output *common.CommandConfig) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in to the resume tracker backend. The token is stored in the
configured session store and used by every other command.

When --password is omitted the password is read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				current, err := a.auth.Login(ctx, username, password)
				if err != nil {
					return err
				}
				return a.output.HandleOutput(describeSession(current, true), *output)
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default: read from stdin)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newSignupCmd(output *common.CommandConfig) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				message, err := a.auth.Signup(ctx, username, email, password)
				if err != nil {
					return err
				}
				return a.output.HandleOutput(types.SignupResponse{Message: message}, *output)
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default: read from stdin)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				if err := a.auth.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(output *common.CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				current, err := a.auth.Current()
				if err != nil {
					return err
				}
				return a.output.HandleOutput(describeSession(current, a.auth.IsAuthenticated()), *output)
			})
		},
	}
}

// describeSession decodes what can be shown about a stored token
func describeSession(current types.AuthSession, authenticated bool) types.SessionInfo {
	info := types.SessionInfo{
		Username:      current.User.Username,
		Authenticated: authenticated,
	}
	claims, err := auth.ParseClaims(current.Token)
	if err != nil {
		return info
	}
	info.Subject = claims.Subject
	if !claims.ExpiresAt.IsZero() {
		expires := claims.ExpiresAt
		info.ExpiresAt = &expires
	}
	return info
}

// readSecret reads one line from r
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read password", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "Username and password are required", nil)
	}
	return line, nil
}
