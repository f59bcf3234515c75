package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/xlclean/pkg/cleaner"
	"github.com/macropower/xlclean/pkg/config"
	"github.com/macropower/xlclean/pkg/filter"
	"github.com/macropower/xlclean/pkg/log"
	"github.com/macropower/xlclean/pkg/picker"
	"github.com/macropower/xlclean/pkg/report"
	"github.com/macropower/xlclean/pkg/rule"
	"github.com/macropower/xlclean/pkg/theme"
)

const (
	cmdLong = `xlclean reads the first sheet of an .xlsx export, removes every row whose
watched columns contain one of the built-in markers, and writes the remaining
rows to <name>_CLEANED.xlsx next to the input. The input is never modified.

Without a file argument, an interactive file picker is shown.`

	cmdExamples = `  # Pick a file interactively:
  xlclean

  # Clean a specific export:
  xlclean ./orders.xlsx

  # Preview the result without writing anything:
  xlclean ./orders.xlsx --dry-run

  # Write to a chosen path:
  xlclean ./orders.xlsx --output ./clean/orders.xlsx

  # Fail if any watched column is missing:
  xlclean ./orders.xlsx --require-all-columns

  # Print the built-in rules:
  xlclean --show-rules`

	noFileSelected = "No file selected."
)

var errNoInput = errors.New("no input file given and --no-picker is set")

type RunArgs struct {
	*RootArgs

	Path              string
	ConfigPath        string
	Output            string
	Suffix            string
	Theme             string
	Workers           int
	LockTimeout       time.Duration
	RequireAllColumns bool
	DryRun            bool
	NoPicker          bool
	ShowRules         bool
	ShowConfig        bool
	WriteConfig       bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "", "Path to the xlclean configuration file")
	cmd.Flags().StringVarP(&ra.Output, "output", "o", "", "Write the cleaned workbook to this path")
	cmd.Flags().StringVar(&ra.Suffix, "suffix", config.DefaultSuffix, "Suffix added to the output file name")
	cmd.Flags().StringVar(&ra.Theme, "theme", config.DefaultTheme, "Color theme, a chroma style name or auto")
	cmd.Flags().IntVar(&ra.Workers, "workers", 0, "Number of filter workers, 0 to pick automatically")
	cmd.Flags().DurationVar(&ra.LockTimeout, "lock-timeout", 0,
		"How long to wait for another run writing the same output, 0 to fail at once")
	cmd.Flags().BoolVar(&ra.RequireAllColumns, "require-all-columns", false,
		"Fail when any watched column is missing instead of skipping its rule")
	cmd.Flags().BoolVarP(&ra.DryRun, "dry-run", "n", false, "Filter and report without writing the output")
	cmd.Flags().BoolVar(&ra.NoPicker, "no-picker", false, "Never show the interactive file picker")
	cmd.Flags().BoolVar(&ra.ShowRules, "show-rules", false, "Print the built-in rules and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration files and exit")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkFlagFilename("output", "xlsx")
	if err != nil {
		panic(fmt.Errorf("mark output flag: %w", err))
	}
}

// applyOverrides copies the flags that were set, on the command line or from
// the environment, over the values from the configuration file.
func (ra *RunArgs) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("suffix") {
		cfg.Output.Suffix = ra.Suffix
	}
	if flags.Changed("theme") {
		cfg.UI.Theme = ra.Theme
	}
	if flags.Changed("workers") {
		cfg.Filter.Workers = ra.Workers
	}
	if flags.Changed("require-all-columns") {
		cfg.Filter.RequireAllColumns = ra.RequireAllColumns
	}
}

func run(cmd *cobra.Command, rc *RunArgs) error {
	configPath := rc.ConfigPath
	if configPath == "" {
		configPath = config.GetPath()
	}

	if rc.WriteConfig {
		written, err := config.WriteDefault(configPath, false)
		if err != nil {
			return fmt.Errorf("write default config: %w", err)
		}

		if written {
			mustN(fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configPath))
		} else {
			mustN(fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s, left unchanged\n", configPath))
		}

		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	rc.applyOverrides(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	t := theme.New(cfg.UI.Theme)

	rules, err := rule.Default()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	if rc.ShowConfig {
		slog.Info("active configuration", slog.String("path", configPath))

		b, err := cfg.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal config yaml: %w", err)
		}

		return printYAML(cmd.OutOrStdout(), t, b)
	}

	if rc.ShowRules {
		b, err := rules.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal rules yaml: %w", err)
		}

		return printYAML(cmd.OutOrStdout(), t, b)
	}

	provider, err := setupProvider(cmd, rc, cfg, t)
	if err != nil {
		return err
	}

	c := cleaner.New(rules,
		cleaner.WithProvider(provider),
		cleaner.WithSuffix(cfg.Output.Suffix),
		cleaner.WithOutput(rc.Output),
		cleaner.WithDryRun(rc.DryRun),
		cleaner.WithLockTimeout(rc.LockTimeout),
		cleaner.WithFilterOptions(
			filter.WithWorkers(cfg.Filter.Workers),
			filter.WithRequireAllColumns(cfg.Filter.RequireAllColumns),
		),
	)

	outcome, err := c.Run(cmd.Context(), rc.Path)
	if errors.Is(err, picker.ErrCancelled) {
		slog.Debug("file selection cancelled", slog.Any("err", err))
		mustN(fmt.Fprintln(cmd.OutOrStdout(), noFileSelected))

		return nil
	}
	if err != nil {
		return err
	}

	err = report.Render(cmd.OutOrStdout(), outcome.Report, report.RenderOptions{
		OutputPath: outcome.Output,
		OutputSize: outcome.OutputSize,
		DryRun:     outcome.DryRun,
		Plain:      !isTerminal(cmd.OutOrStdout()),
		Theme:      t,
	})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}

func setupProvider(cmd *cobra.Command, rc *RunArgs, cfg *config.Config, t *theme.Theme) (picker.Provider, error) {
	if rc.Path != "" {
		return picker.Static(rc.Path), nil
	}

	if rc.NoPicker {
		return nil, errNoInput
	}

	interactive := picker.NewInteractive(
		picker.WithDirectory(cfg.Picker.Directory),
		picker.WithTheme(t),
	)

	return &bufferedProvider{
		Provider:  interactive,
		w:         cmd.ErrOrStderr(),
		logLevel:  rc.LogLevel,
		logFormat: rc.LogFormat,
	}, nil
}

// bufferedProvider holds log output in a [log.Ring] while the wrapped
// provider owns the terminal, then writes it to w.
type bufferedProvider struct {
	picker.Provider

	w         io.Writer
	logLevel  string
	logFormat string
}

func (p *bufferedProvider) PickPath(ctx context.Context) (string, error) {
	ring := log.NewRing(log.DefaultRingCapacity)

	logHandler, err := log.CreateHandlerWithStrings(ring, p.logLevel, p.logFormat)
	if err != nil {
		return "", fmt.Errorf("create log handler: %w", err)
	}

	prev := slog.Default()
	slog.SetDefault(slog.New(logHandler))

	defer func() {
		slog.SetDefault(prev)
		flushLogs(p.w, ring)
	}()

	path, err := p.Provider.PickPath(ctx)
	if err != nil {
		return "", fmt.Errorf("pick file: %w", err)
	}

	return path, nil
}

func flushLogs(w io.Writer, ring *log.Ring) {
	slog.Debug("flush logs to console",
		slog.Int("count", ring.Size()),
		slog.Int("max", ring.Capacity()),
		slog.Int("dropped", ring.Dropped()),
	)

	_, err := ring.WriteTo(w)
	if err != nil {
		slog.Error("flush logs", slog.Any("err", err))
	}
}

func printYAML(w io.Writer, t *theme.Theme, b []byte) error {
	if !isTerminal(w) {
		mustN(w.Write(b))
		return nil
	}

	err := t.Highlight(w, string(b), "yaml")
	if err != nil {
		slog.Debug("highlight yaml", slog.Any("err", err))
		mustN(w.Write(b))
	}

	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
