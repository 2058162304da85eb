package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nback/internal/progress"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Last int // 0 summarizes every block
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize training progress",
		Long: `Summarize saved blocks: accuracy statistics, levels reached and
whether accuracy is trending up or down.

Examples:
  nback stats
  nback stats --last 30 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Last, "last", 0, "only the most recent N blocks (0 = all)")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
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

	sessions, err := st.ListSessions(ctx, opts.Last)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	summary := progress.Summarize(sessions)

	f := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if f.IsJSON() {
		return f.Success(summary)
	}

	w := f.Writer
	if summary.Blocks == 0 {
		fmt.Fprintln(w, "No blocks saved yet.")
		return nil
	}

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%d blocks", summary.Blocks)))
	fmt.Fprintf(w, "accuracy     mean %.1f%%  median %.1f%%  stddev %.1f\n",
		summary.MeanAccuracy*100, summary.MedianAccuracy*100, summary.StdDevAccuracy*100)
	fmt.Fprintf(w, "hit rate     %.1f%%\n", summary.MeanHitRate*100)
	fmt.Fprintf(w, "rejections   %.1f%%\n", summary.MeanCorrectRejectionRate*100)
	fmt.Fprintf(w, "levels       best %d  latest %d  next %d\n", summary.BestLevel, summary.LatestLevel, summary.NextLevel)
	fmt.Fprintf(w, "trend        %s\n", trendText(summary.Trend))

	fmt.Fprintln(w)
	for _, l := range summary.Levels {
		fmt.Fprintf(w, "  %d-back  %3d blocks  mean %.1f%%  best %.1f%%\n",
			l.N, l.Blocks, l.MeanAccuracy*100, l.BestAccuracy*100)
	}
	return nil
}

func trendText(trend float64) string {
	s := fmt.Sprintf("%+.1f points", trend*100)
	switch {
	case trend > 0:
		return passStyle.Render(s)
	case trend < 0:
		return failStyle.Render(s)
	default:
		return s
	}
}
