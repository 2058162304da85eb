package cli

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nback/internal/audio"
	"github.com/roach88/nback/internal/engine"
	"github.com/roach88/nback/internal/input"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Blocks         int
	Level          int
	Trials         int
	HitRate        float64 // probability of pressing on a match
	FalseAlarmRate float64 // probability of pressing on a non-match
	Seed           uint64  // 0 picks a random seed
	ISI            time.Duration
	DryRun         bool // run against an in-memory store
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run blocks with a synthetic player",
		Long: `Run blocks with a synthetic responder at fast timing.

The responder presses on a match with probability --hit-rate and on a
non-match with probability --false-alarm-rate. Blocks are scored, adapted
and saved exactly like played ones unless --dry-run is given, in which case
they run against a throwaway in-memory database.

Examples:
  nback simulate --blocks 10 --dry-run
  nback simulate --hit-rate 0.95 --false-alarm-rate 0.02 --seed 42
  nback simulate --blocks 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Blocks, "blocks", 1, "number of blocks to run")
	cmd.Flags().IntVar(&opts.Level, "level", 0, "start at this n instead of the stored level")
	cmd.Flags().IntVar(&opts.Trials, "trials", 0, "trials per block (0 = config default)")
	cmd.Flags().Float64Var(&opts.HitRate, "hit-rate", 0.9, "probability of pressing on a match")
	cmd.Flags().Float64Var(&opts.FalseAlarmRate, "false-alarm-rate", 0.1, "probability of pressing on a non-match")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for sequences and responses (0 = random)")
	cmd.Flags().DurationVar(&opts.ISI, "isi", 4*time.Millisecond, "inter-stimulus interval")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "do not persist results")

	return cmd
}

func runSimulate(opts *SimulateOptions, cmd *cobra.Command) error {
	setupLogging(cmd.ErrOrStderr(), opts.Verbose)

	if opts.Blocks < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--blocks must be >= 1, got %d", opts.Blocks))
	}
	if !validProbability(opts.HitRate) || !validProbability(opts.FalseAlarmRate) {
		return NewExitError(ExitCommandError, "--hit-rate and --false-alarm-rate must be in [0, 1]")
	}
	if opts.ISI <= 0 {
		return NewExitError(ExitCommandError, "--isi must be positive")
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.DryRun {
		cfg.Database = ":memory:"
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	slog.Debug("simulating", "blocks", opts.Blocks, "seed", seed, "dry_run", opts.DryRun)

	presses := input.NewBroadcaster(0)
	engineOpts := append(cfg.EngineOptions(),
		engine.WithISI(opts.ISI),
		engine.WithResponseWindow(opts.ISI/2),
		engine.WithLevelUpDelay(0),
		engine.WithSeed(seed),
	)
	eng := engine.New(audio.Nop, presses, engineOpts...)

	responder := newResponder(presses, opts.HitRate, opts.FalseAlarmRate, seed)
	eng.Subscribe(responder.observe)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	runner, err := newRunner(ctx, eng, st, cfg, opts.Level, opts.Trials)
	if err != nil {
		return err
	}

	sessions, err := runner.RunBlocks(ctx, opts.Blocks)
	if err != nil {
		return WrapExitError(ExitFailure, "simulation failed", err)
	}

	next, err := runner.Level(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read level", err)
	}
	return writeSessions(NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()), sessions, next)
}

func validProbability(p float64) bool {
	return p >= 0 && p <= 1
}

// responder presses at trial start with a fixed probability per trial kind.
// It runs on the engine goroutine, inside the response window.
type responder struct {
	mu             sync.Mutex
	rng            *rand.Rand
	presses        *input.Broadcaster
	hitRate        float64
	falseAlarmRate float64
}

func newResponder(presses *input.Broadcaster, hitRate, falseAlarmRate float64, seed uint64) *responder {
	return &responder{
		rng:            rand.New(rand.NewPCG(seed, ^seed)),
		presses:        presses,
		hitRate:        hitRate,
		falseAlarmRate: falseAlarmRate,
	}
}

func (r *responder) observe(ev engine.Event) {
	if ev.Type != engine.EventTrialStart {
		return
	}

	p := r.falseAlarmRate
	if ev.TrialStart.IsMatch {
		p = r.hitRate
	}

	r.mu.Lock()
	press := r.rng.Float64() < p
	r.mu.Unlock()

	if press {
		r.presses.Press()
	}
}
