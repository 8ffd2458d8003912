// Package cmd wires qbet's cobra commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"qbet/config"
	"qbet/ocr"
	"qbet/qbank"
	"qbet/workspace"
)

// ConfigEnv names the environment variable holding the default config path.
const ConfigEnv = "QBET_CONFIG"

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "qbet.yaml"

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	root       string
	logLevel   string

	cfg    *config.Config
	layout workspace.Layout
	logger *slog.Logger
	stderr io.Writer
}

// NewRootCmd builds the qbet command tree.
func NewRootCmd() *cobra.Command {
	a := &app{stderr: os.Stderr}

	cmd := &cobra.Command{
		Use:   "qbet [path]",
		Short: "Build a markdown question bank from photographed questions",
		Long: `qbet copies a folder of question photos into a numbered working set, lets you
drag out the question area on each image, runs OCR over the crop and appends
the reviewed question and answer to output/QB.md.

Running qbet without a subcommand starts the interactive session.`,
		Example: `  # Pick the folder interactively
  qbet

  # Start straight from a folder of photos
  qbet ~/Pictures/exam

  # Append an entry without the UI
  qbet add --question "Capital of France?" --answer Paris --correct`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd.Context(), firstArg(args))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default $"+ConfigEnv+" or qbet.yaml)")
	flags.StringVar(&a.root, "root", "", "workspace root holding input/, output/ and temp/")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newRunCmd(a),
		newIntakeCmd(a),
		newOCRCmd(a),
		newAddCmd(a),
		newCleanCmd(a),
		newCheckCmd(a),
		newInitCmd(a),
	)

	return cmd
}

// setup loads configuration, applies flag overrides and prepares the
// stderr logger used by one-shot commands.
func (a *app) setup() error {
	cfg := config.NewDefault()
	if err := config.LoadOptional(a.resolvedConfigPath(), cfg); err != nil {
		return err
	}
	if a.root != "" {
		cfg.Root = a.root
	}
	if a.logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
		}
	}

	layout, err := workspace.New(cfg.Root)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.layout = layout
	a.logger = newLogger(a.stderr, cfg.LogLevel)
	slog.SetDefault(a.logger)
	return nil
}

// resolvedConfigPath returns --config, then $QBET_CONFIG, then qbet.yaml.
func (a *app) resolvedConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		return env
	}
	return DefaultConfigFile
}

func (a *app) runner() (*ocr.Runner, error) {
	engine, err := ocr.NewEngine(a.cfg.OCR)
	if err != nil {
		return nil, err
	}
	return ocr.NewRunner(engine, a.layout, a.logger), nil
}

func (a *app) bank() *qbank.Log {
	return qbank.New(a.layout.QuestionBank())
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
