package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/nback/internal/config"
	"github.com/roach88/nback/internal/scoring"
	"github.com/roach88/nback/internal/stimulus"
	"github.com/roach88/nback/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	ID    string // optional - specific block only
	Limit int
}

// ReplaySessionResult holds the replay result for a single block.
type ReplaySessionResult struct {
	ID            string        `json:"id"`
	N             int           `json:"n"`
	Seed          uint64        `json:"seed"`
	Stored        scoring.Tally `json:"stored"`
	Replayed      scoring.Tally `json:"replayed"`
	Deterministic bool          `json:"deterministic"`
	Reason        string        `json:"reason,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Regenerate saved blocks and verify their scores",
		Long: `Regenerate saved blocks from their seeds and verify the stored results.

Each block's sequence is generated again from its seed with the configured
alphabet and match rate, the stored presses are scored against it, and the
tally is compared with the one saved when the block was played. A block
played with a different alphabet or match rate will not replay.

Exit codes:
  0 - All blocks replay to their stored result
  1 - At least one block differs
  2 - Command error (database not found, etc.)

Examples:
  nback replay
  nback replay --id 0190c3a5-...
  nback replay --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "replay a specific block only")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "replay only the most recent N blocks (0 = all)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	setupLogging(cmd.ErrOrStderr(), opts.Verbose)
	ctx := context.Background()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	var sessions []store.Session
	if opts.ID != "" {
		s, err := st.ReadSession(ctx, opts.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read block %s", opts.ID), err)
		}
		sessions = []store.Session{s}
	} else {
		sessions, err = st.ListSessions(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	if len(sessions) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{
				Sessions:         []ReplaySessionResult{},
				AllDeterministic: true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No blocks found in database.")
		return nil
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}
	for _, s := range sessions {
		r := replaySession(cfg, s)
		result.Sessions = append(result.Sessions, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replaySession regenerates s's sequence and re-scores its stored presses.
func replaySession(cfg config.Config, s store.Session) ReplaySessionResult {
	res := ReplaySessionResult{
		ID:     s.ID,
		N:      s.N,
		Seed:   s.Seed,
		Stored: s.Tally,
	}

	seq := stimulus.Generate(s.N, s.TotalTrials, cfg.MatchRate,
		stimulus.WithSeed(s.Seed),
		stimulus.WithAlphabet(cfg.AlphabetSymbols()),
	)

	if len(s.Trials) != seq.TotalTrials {
		res.Reason = fmt.Sprintf("stored %d trials, sequence has %d", len(s.Trials), seq.TotalTrials)
		return res
	}

	sorted := slices.IsSortedFunc(s.Trials, func(a, b store.TrialRecord) int { return a.Index - b.Index })
	if !sorted {
		res.Reason = "stored trials are out of order"
		return res
	}

	scorer := scoring.NewScorer()
	for i, tr := range s.Trials {
		if tr.Match != seq.IsMatch(i) {
			res.Reason = fmt.Sprintf("trial %d: stored match=%t, replayed match=%t", i, tr.Match, seq.IsMatch(i))
			res.Replayed = scorer.Tally()
			return res
		}
		scorer.RecordTrial(tr.Pressed, tr.Match)
	}

	res.Replayed = scorer.Tally()
	if res.Replayed != res.Stored {
		res.Reason = "tally differs"
		return res
	}
	res.Deterministic = true
	return res
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "replay verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d block(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := passStyle.Render("✓")
		if !s.Deterministic {
			status = failStyle.Render("✗")
		}

		fmt.Fprintf(w, "%s Block: %s (n=%d, seed=%d)\n", status, s.ID, s.N, s.Seed)
		if verbose || !s.Deterministic {
			fmt.Fprintf(w, "  Stored:   H=%d M=%d FA=%d CR=%d\n",
				s.Stored.Hits, s.Stored.Misses, s.Stored.FalseAlarms, s.Stored.CorrectRejections)
			fmt.Fprintf(w, "  Replayed: H=%d M=%d FA=%d CR=%d\n",
				s.Replayed.Hits, s.Replayed.Misses, s.Replayed.FalseAlarms, s.Replayed.CorrectRejections)
		}
		if s.Reason != "" {
			fmt.Fprintf(w, "  Warning: %s\n", s.Reason)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, passStyle.Render("✓ All blocks replay to their stored result"))
		return nil
	}

	fmt.Fprintln(w, failStyle.Render("✗ Replay verification failed"))
	return NewExitError(ExitFailure, "replay verification failed")
}
