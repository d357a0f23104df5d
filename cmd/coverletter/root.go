package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benjaminschreck/go-coverletter/internal/prompt"
	"github.com/benjaminschreck/go-coverletter/internal/settings"
	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// prompter is the terminal interaction the commands need
type prompter interface {
	stencil.Confirmer
	Select(ctx context.Context, message string, options []string) (string, error)
	Input(ctx context.Context, message, def string) (string, error)
}

// app holds the state shared by all commands
type app struct {
	cfgFile      string
	settingsPath string
	envFile      string
	verbose      bool
	assumeYes    bool

	config *stencil.Config
	store  *settings.FileStore

	newPrompter func(assumeYes bool) prompter
	openFile    func(path string) error
}

func newApp() *app {
	return &app{
		envFile: ".env",
		newPrompter: func(assumeYes bool) prompter {
			return prompt.NewTerminal(assumeYes)
		},
		openFile: openWithDefaultApp,
	}
}

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "coverletter",
		Short: "Generate cover letters from word-processing templates",
		Long: titleStyle.Render("coverletter") + subtitleStyle.Render(" - personalized cover letters from templates") + `

Templates are .docx files grouped in sub-directories of the templates
directory. Each template must contain the placeholders {JOB SOURCE},
{COMPANY NAME}, {FIRST NAME} and {LAST NAME}; {JOB TITLE} is optional.

` + subtitleStyle.Render("Examples:") + `
  coverletter settings set --templates ~/templates --output ~/letters --first Ada --last Lovelace
  coverletter templates
  coverletter generate -t engineering -d standard.docx --source LinkedIn --company Acme --title Engineer
  coverletter history --company Acme`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is <settings dir>/config.yaml)")
	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "", "settings file (default is <user config dir>/coverletter/settings.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&a.assumeYes, "yes", "y", false, "answer yes to confirmation prompts")

	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newTemplatesCmd(a))
	root.AddCommand(newPlaceholdersCmd(a))
	root.AddCommand(newSettingsCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// initialize loads .env, the config file and the COVERLETTER_* environment,
// then sets up logging and the settings store.
func (a *app) initialize(stderr io.Writer) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	v := stencil.NewViper()
	v.SetDefault("settings", "")

	path := a.settingsPath
	if path == "" {
		path = v.GetString("settings")
	}
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return err
		}
	}
	a.store = settings.NewFileStore(path)

	if err := readConfigFile(v, a.cfgFile, a.store.Dir()); err != nil {
		return err
	}

	cfg := stencil.ConfigFromViper(v)
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.config = cfg

	stencil.SetLogger(stencil.NewLogger(stderr, stencil.ParseLogLevel(cfg.LogLevel)))
	stencil.SetGlobalConfig(cfg)
	stencil.WithField("settings", path).Debug("configuration loaded")
	return nil
}

func readConfigFile(v *viper.Viper, explicit, dir string) error {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config in %s: %w", filepath.Clean(dir), err)
	}
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, newApp(), args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(stderr, errorStyle.Render("Error: ")+exitErr.err.Error())
		}
		return exitErr.code
	}
	fmt.Fprintln(stderr, errorStyle.Render("Error: ")+err.Error())
	return 1
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	if Version == "dev" {
		return "coverletter dev (built from source)"
	}
	return fmt.Sprintf("coverletter %s (commit: %s)", Version, Commit)
}
