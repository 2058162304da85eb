package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// LevelResult is the JSON payload of the level commands.
type LevelResult struct {
	Level int `json:"level"`
}

// NewLevelCommand creates the level command and its set subcommand.
func NewLevelCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "level",
		Short: "Show or set the current level",
		Long: `Show the n the next block will be played at.

The level is updated automatically after every completed block; use
"nback level set <n>" to override it.

Examples:
  nback level
  nback level set 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLevel(rootOpts, cmd, 0)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "set <n>",
		Short:         "Set the current level",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("level must be a positive integer, got %q", args[0]))
			}
			return runLevel(rootOpts, cmd, n)
		},
	})

	return cmd
}

// runLevel prints the current level, first storing n when n > 0.
func runLevel(opts *RootOptions, cmd *cobra.Command, n int) error {
	setupLogging(cmd.ErrOrStderr(), opts.Verbose)
	ctx := context.Background()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if n > 0 {
		clamped := cfg.ScoringThresholds().Clamp(n)
		if clamped != n {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("level %d outside [%d, %d]", n, cfg.Levels.Min, cfg.Levels.Max))
		}
		if err := st.SetCurrentLevel(ctx, n); err != nil {
			return WrapExitError(ExitCommandError, "failed to set level", err)
		}
	}

	level, err := st.CurrentLevel(ctx, cfg.StartLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read level", err)
	}
	level = cfg.ScoringThresholds().Clamp(level)

	f := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if f.IsJSON() {
		return f.Success(LevelResult{Level: level})
	}
	return f.Success(fmt.Sprintf("Current level: %d-back", level))
}
