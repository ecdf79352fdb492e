package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// ErrNoInput is returned when a prompt hits the end of input.
var ErrNoInput = errors.New("no input")

type credentialOptions struct {
	password string
}

func bindPasswordFlag(cmd *cobra.Command, opts *credentialOptions) {
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password (prompted when omitted)")
}

func (opts *RootOptions) resolvePassword(cmd *cobra.Command, creds *credentialOptions) (string, error) {
	if cmd.Flags().Changed("password") {
		return creds.password, nil
	}

	return opts.prompt(cmd, "Password: ")
}

// prompt writes label to stderr and reads one line from the input stream.
func (opts *RootOptions) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)

	line, err := opts.input().ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", commandError(ErrNoInput)
		}

		return "", fmt.Errorf("read input: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// NewSignUpCommand creates the signup command.
func NewSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	creds := &credentialOptions{}

	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Register a new user",
		Long: `Register a new user. Signing up does not log in; run "login" afterwards.
Usernames are case-sensitive.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := rootOpts.resolvePassword(cmd, creds)
			if err != nil {
				return err
			}

			if err := rootOpts.app.SignUp(cmd.Context(), args[0], password); err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Message("Signup successful! Please login.", map[string]any{
				"username": args[0],
				"signedUp": true,
			})
		},
	}

	bindPasswordFlag(cmd, creds)

	return cmd
}

// NewLogInCommand creates the login command.
func NewLogInCommand(rootOpts *RootOptions) *cobra.Command {
	creds := &credentialOptions{}

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in; the session is kept until logout",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := rootOpts.resolvePassword(cmd, creds)
			if err != nil {
				return err
			}

			if err := rootOpts.app.LogIn(cmd.Context(), args[0], password); err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Message("Logged in as "+args[0]+".", map[string]any{
				"username": args[0],
				"loggedIn": true,
			})
		},
	}

	bindPasswordFlag(cmd, creds)

	return cmd
}

// NewLogOutCommand creates the logout command.
func NewLogOutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rootOpts.app.LogOut(cmd.Context()); err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Message("Logged out.", map[string]any{"loggedIn": false})
		},
	}
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, ok := rootOpts.app.CurrentSession()

			message := "Not logged in."
			if ok {
				message = username
			}

			return rootOpts.formatter(cmd).Message(message, map[string]any{
				"username": username,
				"loggedIn": ok,
			})
		},
	}
}
