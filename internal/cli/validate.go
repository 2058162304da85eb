package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nback/internal/config"
	"github.com/roach88/nback/internal/harness"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                     `json:"valid"`
	Errors    []config.ValidationError `json:"errors,omitempty"`
	Scenarios int                      `json:"scenarios,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ScenariosDir string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a config file without playing",
		Long: `Validate a YAML config file against the settings schema.

Reports every violation (unknown keys, out-of-range values, an alphabet
with duplicate letters, ...) rather than stopping at the first. With no
argument the --config file is validated. --scenarios also loads and checks
every scenario file in a directory.

Examples:
  nback validate nback.yaml
  nback validate --config nback.yaml --format json
  nback validate nback.yaml --scenarios ./scenarios`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ScenariosDir, "scenarios", "", "also validate the scenario files in this directory")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if path == "" {
		return outputValidateError(formatter, "E_USAGE", "no config file given (pass a path or --config)")
	}

	formatter.VerboseLog("Validating %s", path)
	if _, err := config.Load(path); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			return outputValidationErrors(formatter, verrs)
		}
		return outputValidateError(formatter, "E_CONFIG", err.Error())
	}

	result := ValidationResult{Valid: true}
	if opts.ScenariosDir != "" {
		scenarios, err := harness.LoadScenarios(opts.ScenariosDir)
		if err != nil {
			return outputValidateError(formatter, "E_SCENARIO", err.Error())
		}
		formatter.VerboseLog("Loaded %d scenario(s) from %s", len(scenarios), opts.ScenariosDir)
		result.Scenarios = len(scenarios)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	msg := "✓ Config is valid"
	if result.Scenarios > 0 {
		msg += fmt.Sprintf(" (%d scenarios)", result.Scenarios)
	}
	return formatter.Success(passStyle.Render(msg))
}

// outputValidationErrors reports every schema violation.
func outputValidationErrors(f *OutputFormatter, errs config.ValidationErrors) error {
	if f.IsJSON() {
		if err := f.Error("E_INVALID_CONFIG", fmt.Sprintf("%d validation error(s)", len(errs)), ValidationResult{
			Valid:  false,
			Errors: errs,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, failStyle.Render(fmt.Sprintf("✗ %d validation error(s):", len(errs))))
		for _, e := range errs {
			fmt.Fprintf(f.Writer, "  %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, "validation failed")
}

// outputValidateError reports a failure that is not a schema violation.
func outputValidateError(f *OutputFormatter, code, message string) error {
	if err := f.Error(code, message, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, message)
}
