package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mkrupp/homecase-catalog/internal/app"
	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/config"
	context_ "github.com/mkrupp/homecase-catalog/internal/infra/context"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
)

// Exit codes returned by Execute.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the requested operation failed
	ExitCommandError = 2 // bad flags, arguments or configuration
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// ErrInvalidFormat is returned for an unknown --format value.
var ErrInvalidFormat = errors.New("invalid format")

// IOStreams are the standard streams a command talks to.
type IOStreams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// IsTerminal reports whether In is interactive. Nil means: check In with isatty.
	IsTerminal func() bool
}

// RootOptions holds global flags for all commands and the runtime they share.
type RootOptions struct {
	Verbose    bool
	Format     string
	ConfigPath string

	Streams IOStreams
	Options []app.Option

	app    *app.App
	store  slot.Repository
	reader *bufio.Reader
}

// NewRootCommand creates the root command of the catalog client.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   cmdName,
		Short: "Keep a catalog of movies and TV shows",
		Long: `A local catalog of movies and TV shows.

All state lives in local storage: registered users, the logged-in session and
the catalog entries. Log in once; the session is restored on every later call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return commandError(err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a TOML config file")

	cmd.AddCommand(NewSignUpCommand(opts))
	cmd.AddCommand(NewLogInCommand(opts))
	cmd.AddCommand(NewLogOutCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewBrowseCommand(opts))
	cmd.AddCommand(NewPosterCommand(opts))

	return cmd
}

// setup parses configuration, configures logging, opens the store and builds the app.
func (opts *RootOptions) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, opts.Format) {
		return commandError(fmt.Errorf("%w %q: must be one of %v", ErrInvalidFormat, opts.Format, ValidFormats))
	}

	ctx := context_.WithNewTraceID(cmd.Context())

	var cfg Config
	if err := config.ParseFile(ctx, &cfg, ConfigNamespace, opts.ConfigPath); err != nil {
		return commandError(fmt.Errorf("parse config: %w", err))
	}

	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	logging.Configure(ctx, cfg.Log, strings.Join([]string{appName, cmdName}, "."))

	store, err := slot.NewRepository(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	catalog, err := app.New(ctx, store, cfg.AppConfig, opts.Options...)
	if err != nil {
		_ = store.Close()

		return fmt.Errorf("new app: %w", err)
	}

	if username, ok := catalog.CurrentSession(); ok {
		ctx = context_.WithUsername(ctx, username)
	}

	opts.store = store
	opts.app = catalog

	cmd.SetContext(ctx)

	return nil
}

// teardown releases what setup opened. It is safe to call when setup did not run.
func (opts *RootOptions) teardown() error {
	var errs []error

	if opts.app != nil {
		errs = append(errs, opts.app.Close())
		opts.app = nil
	}

	if opts.store != nil {
		errs = append(errs, opts.store.Close())
		opts.store = nil
	}

	return errors.Join(errs...)
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

func (opts *RootOptions) input() *bufio.Reader {
	if opts.reader == nil {
		in := opts.Streams.In
		if in == nil {
			in = os.Stdin
		}

		opts.reader = bufio.NewReader(in)
	}

	return opts.reader
}

func (opts *RootOptions) interactive() bool {
	if opts.Streams.IsTerminal != nil {
		return opts.Streams.IsTerminal()
	}

	in := opts.Streams.In
	if in == nil {
		in = os.Stdin
	}

	file, ok := in.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// Run executes the client with args and releases every resource afterwards.
func Run(ctx context.Context, args []string, opts *RootOptions) (err error) {
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)

	if opts.Streams.In != nil {
		cmd.SetIn(opts.Streams.In)
	}

	if opts.Streams.Out != nil {
		cmd.SetOut(opts.Streams.Out)
	}

	if opts.Streams.Err != nil {
		cmd.SetErr(opts.Streams.Err)
	}

	defer func() {
		err = errors.Join(err, opts.teardown())
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		return err
	}

	return nil
}

// Execute runs the client against the process streams and returns the exit code.
// Failures are reported with the same messages the catalog shows as notifications.
func Execute(ctx context.Context, args []string) int {
	opts := &RootOptions{
		Streams: IOStreams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr},
	}

	err := Run(ctx, args, opts)
	if err == nil {
		return ExitSuccess
	}

	logging.GetLogger("cli").ErrorContext(ctx, "command failed", "error", err)

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr.Err)

		return ExitCommandError
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", domain.UserMessage(err))

	return ExitFailure
}

// CommandError marks failures caused by the invocation itself.
type CommandError struct {
	Err error
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(err error) error {
	return &CommandError{Err: err}
}

// exactArgs is cobra.ExactArgs reporting a CommandError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return commandError(err)
		}

		return nil
	}
}
