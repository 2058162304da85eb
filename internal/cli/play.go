package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/nback/internal/config"
	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/input"
	"github.com/roach88/nback/internal/metrics"
	"github.com/roach88/nback/internal/session"
	"github.com/roach88/nback/internal/store"
	"github.com/roach88/nback/internal/tui"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Blocks      int    // 0 plays until quit
	Level       int    // 0 keeps the stored level
	Trials      int    // 0 uses the config (20+n by default)
	Headless    bool   // read presses from stdin instead of the TUI
	MetricsAddr string // serve Prometheus metrics when set
	LogFile     string // TUI mode log destination
}

// PlayResult is the JSON payload of the play command.
type PlayResult struct {
	Sessions  []store.Session `json:"sessions"`
	NextLevel int             `json:"next_level"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play n-back blocks",
		Long: `Play blocks at your current level until you quit.

In the terminal UI press space or enter on a match, p to pause or resume
(pauses take effect between trials) and q to stop. With --headless, each
line read from stdin is a press, and the lines "p", "r" and "q" pause,
resume and quit.

Every completed block is saved and sets the level of the next one.

Examples:
  nback play
  nback play --blocks 3 --level 2
  nback play --headless --metrics-addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Blocks, "blocks", 0, "number of blocks to play (0 = until quit)")
	cmd.Flags().IntVar(&opts.Level, "level", 0, "start at this n instead of the stored level")
	cmd.Flags().IntVar(&opts.Trials, "trials", 0, "trials per block (0 = config default)")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "read presses from stdin instead of the terminal UI")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs here while the terminal UI runs")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	// The terminal UI owns the screen, so its logs go to a file (or nowhere).
	if opts.Headless {
		setupLogging(cmd.ErrOrStderr(), opts.Verbose)
	} else {
		w, closeLog, err := logFile(opts.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
		setupLogging(w, opts.Verbose)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	presses := input.NewBroadcaster(cfg.Debounce)
	eng := engine.New(soundPlayer(cfg), presses, cfg.EngineOptions()...)

	runner, err := newRunner(ctx, eng, st, cfg, opts.Level, opts.Trials)
	if err != nil {
		return err
	}

	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		eng.Subscribe(metrics.NewCollector(reg).Observe)
		go func() {
			if err := metrics.Serve(ctx, opts.MetricsAddr, reg); err != nil {
				slog.Error("metrics server failed", "addr", opts.MetricsAddr, "error", err)
			}
		}()
	}

	blocks := tui.BlockRunner(func(ctx context.Context) ([]store.Session, error) {
		return runner.RunBlocks(ctx, opts.Blocks)
	})

	var sessions []store.Session
	if opts.Headless {
		sessions, err = playHeadless(ctx, cancel, eng, presses, blocks, cmd)
	} else {
		sessions, err = tui.Play(ctx, eng, presses, blocks, programOptions(cmd)...)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "play failed", err)
	}

	next, err := runner.Level(context.WithoutCancel(ctx))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read level", err)
	}
	return writeSessions(NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()), sessions, next)
}

// newRunner builds a session runner honoring the --level and --trials
// overrides.
func newRunner(ctx context.Context, eng *engine.Engine, st *store.Store, cfg config.Config, level, trials int) (*session.Runner, error) {
	if level > 0 {
		if err := st.SetCurrentLevel(ctx, eng.Thresholds().Clamp(level)); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to set level", err)
		}
	}

	trialsFor := cfg.TrialsFor
	if trials > 0 {
		trialsFor = func(int) int { return trials }
	}

	return session.NewRunner(eng, st,
		session.WithTrials(trialsFor),
		session.WithStartLevel(cfg.StartLevel),
	), nil
}

// playHeadless runs blocks with presses read line by line from stdin.
func playHeadless(ctx context.Context, quit context.CancelFunc, eng *engine.Engine, presses *input.Broadcaster, blocks tui.BlockRunner, cmd *cobra.Command) ([]store.Session, error) {
	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, "Enter = match, p = pause, r = resume, q = quit.")

	unsubscribe := eng.Subscribe(func(ev engine.Event) { announce(out, ev) })
	defer unsubscribe()

	go func() {
		err := input.ReadLines(ctx, cmd.InOrStdin(), presses, input.Controls{
			Pause:  func() { eng.Pause() },
			Resume: func() { eng.Resume() },
			Quit: func() {
				eng.Stop()
				quit()
			},
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("reading presses failed", "error", err)
		}
	}()

	return blocks(ctx)
}

// announce prints block progress for headless play.
func announce(w io.Writer, ev engine.Event) {
	switch ev.Type {
	case engine.EventBlockStart:
		fmt.Fprintf(w, "%s %d trials\n", headingStyle.Render(fmt.Sprintf("%d-back:", ev.BlockStart.N)), ev.BlockStart.TotalTrials)
	case engine.EventPaused:
		fmt.Fprintln(w, "paused (after this trial)")
	case engine.EventResumed:
		fmt.Fprintln(w, "resumed")
	case engine.EventStopped:
		fmt.Fprintln(w, "stopped")
	case engine.EventBlockComplete:
		bc := ev.BlockComplete
		fmt.Fprintf(w, "accuracy %.0f%%, next level %d\n", bc.Results.Accuracy*100, bc.NextLevel)
	}
}

// writeSessions reports the blocks a command ran.
func writeSessions(f *OutputFormatter, sessions []store.Session, next int) error {
	if sessions == nil {
		sessions = []store.Session{}
	}
	if f.IsJSON() {
		return f.Success(PlayResult{Sessions: sessions, NextLevel: next})
	}

	w := f.Writer
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No blocks completed.")
	}
	for _, s := range sessions {
		fmt.Fprintln(w, sessionLine(s))
	}
	fmt.Fprintf(w, "Next level: %d\n", next)
	return nil
}

// programOptions redirects the terminal UI when the command's streams were
// replaced (tests, pipes).
func programOptions(cmd *cobra.Command) []tea.ProgramOption {
	var opts []tea.ProgramOption
	if in := cmd.InOrStdin(); in != os.Stdin {
		opts = append(opts, tea.WithInput(in))
	}
	if out := cmd.OutOrStdout(); out != os.Stdout {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
