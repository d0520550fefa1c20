// Package cli is the notedex command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/notedex/internal/chunker"
	"github.com/dgallion1/notedex/internal/config"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/logging"
	"github.com/dgallion1/notedex/internal/parser"
	"github.com/dgallion1/notedex/internal/pipeline"
	"github.com/dgallion1/notedex/internal/store"
)

// Process exit codes.
const (
	exitOK        = 0
	exitNotFound  = 1
	exitMalformed = 2
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func notFound(format string, args ...any) error {
	return &exitError{code: exitNotFound, err: fmt.Errorf(format, args...)}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := newRootCmd()
	err := cmd.ExecuteContext(context.Background())
	return exitCode(cmd.ErrOrStderr(), err)
}

func exitCode(w io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(w, color.RedString("error:"), err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	dataDir    string
	debug      bool

	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "notedex",
		Short:         "Index heading-structured notes and query them by heading path",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Name() != "serve")
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "where the persisted load lives (overrides config)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		loadCmd(a),
		queryCmd(a),
		searchCmd(a),
		outlineCmd(a),
		duplicatesCmd(a),
		serveCmd(a),
		clearCmd(a),
	)
	return cmd
}

// setup loads configuration and builds the logger. One-shot commands log
// warnings only unless --debug is given.
func (a *app) setup(quiet bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	log, cleanup, err := logging.New(logging.Config{File: cfg.LogFile, Debug: cfg.Debug, Quiet: quiet})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.log, a.closeLog = log, cleanup
	return nil
}

func (a *app) close() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

func (a *app) indexOptions(threshold float64) index.Options {
	if threshold <= 0 {
		threshold = a.cfg.SimilarityThreshold
	}
	return index.Options{
		Threshold: threshold,
		Excerpt:   chunker.Config{MaxTokens: a.cfg.ExcerptTokens},
	}
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Parser:       parser.Options{PDFFallbackPdftotext: a.cfg.PDFFallbackPdftotext},
		Index:        a.indexOptions(0),
		MaxFileBytes: a.cfg.MaxFileBytes,
	}, a.log)
}

func (a *app) openStore() (*store.Store, error) {
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(store.Config{Path: a.cfg.StorePath(), Logger: a.log})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.cfg.StorePath(), err)
	}
	return st, nil
}

// restore rebuilds the snapshot of the last load from st. threshold > 0
// overrides the saved one.
func (a *app) restore(ctx context.Context, st *store.Store, threshold float64) (*index.Snapshot, *store.Meta, error) {
	docs, meta, err := st.Load(ctx)
	if errors.Is(err, store.ErrEmpty) {
		return nil, nil, notFound("nothing loaded; run `notedex load <paths...>` first")
	}
	if err != nil {
		return nil, nil, err
	}
	if threshold <= 0 {
		threshold = meta.Threshold
	}
	opts := a.indexOptions(threshold)
	opts.Generation = meta.Generation
	return index.New(docs, opts), meta, nil
}

// snapshot opens the store just long enough to restore the last load.
func (a *app) snapshot(ctx context.Context, threshold float64) (*index.Snapshot, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	snap, _, err := a.restore(ctx, st, threshold)
	return snap, err
}

func clearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the persisted load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Clear(); err != nil {
				return fmt.Errorf("clear store: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("cleared"), a.cfg.StorePath())
			return nil
		},
	}
}
