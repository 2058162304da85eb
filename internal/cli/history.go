package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nback/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	ID    string
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Sessions []store.Session `json:"sessions"`
	Total    int             `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved blocks",
		Long: `List saved blocks, newest first.

With --id, show a single block including its per-trial record.

Examples:
  nback history
  nback history --limit 50
  nback history --id 0190c3a5-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of blocks (0 = all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show one block by id")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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

	f := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.ID != "" {
		return showSession(ctx, f, st, opts.ID)
	}

	sessions, err := st.ListSessions(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	total, err := st.CountSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count sessions", err)
	}

	if f.IsJSON() {
		return f.Success(HistoryResult{Sessions: sessions, Total: total})
	}

	w := f.Writer
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No blocks saved yet.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintln(w, sessionLine(s))
	}
	if total > len(sessions) {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("(%d of %d blocks)", len(sessions), total)))
	}
	return nil
}

func showSession(ctx context.Context, f *OutputFormatter, st *store.Store, id string) error {
	s, err := st.ReadSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		_ = f.Error("E_NOT_FOUND", fmt.Sprintf("no block with id %s", id), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	if f.IsJSON() {
		return f.Success(s)
	}

	w := f.Writer
	fmt.Fprintln(w, sessionLine(s))
	fmt.Fprintf(w, "hit rate %.1f%%  correct rejection rate %.1f%%  seed %d\n",
		s.HitRate*100, s.CorrectRejectionRate*100, s.Seed)
	for _, tr := range s.Trials {
		mark := " "
		if tr.Match {
			mark = "*"
		}
		pressed := ""
		if tr.Pressed {
			pressed = "pressed"
		}
		fmt.Fprintf(w, "  %3d %s %-17s %s\n", tr.Index+1, mark, tr.Outcome, pressed)
	}
	return nil
}

// sessionLine renders one stored block for text output.
func sessionLine(s store.Session) string {
	return fmt.Sprintf("%s  %s  n=%d  acc=%5.1f%%  H=%d M=%d FA=%d CR=%d  next=%d",
		dimStyle.Render(s.CompletedAt.Local().Format("2006-01-02 15:04")),
		s.ID,
		s.N,
		s.Accuracy*100,
		s.Tally.Hits, s.Tally.Misses, s.Tally.FalseAlarms, s.Tally.CorrectRejections,
		s.NextLevel,
	)
}
