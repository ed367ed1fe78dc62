package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tempomat/internal/config"
	"github.com/roach88/tempomat/internal/harness"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Kind string // "scenario" | "config"
}

// FileValidation is the per-file validation verdict.
type FileValidation struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds the overall validation result.
type ValidationResult struct {
	Files   []FileValidation `json:"files"`
	Valid   bool             `json:"valid"`
	Invalid int              `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate scenario or calibration files",
		Long: `Validate drive scenario files or calibration config files without
executing them.

Scenario files get a full structural check (unknown fields, assertion
shapes, repeat counts); calibration files are validated against the
schema, including the cross-field constraints.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error

Examples:
  tempomat validate ./scenarios/highway.yaml
  tempomat validate --kind config ./calibration.yaml
  tempomat validate ./scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "scenario", "file kind (scenario|config)")

	return cmd
}

func runValidate(opts *ValidateOptions, files []string, cmd *cobra.Command) error {
	var validateFile func(path string) error
	switch opts.Kind {
	case "scenario":
		validateFile = func(path string) error {
			scenario, err := harness.LoadScenario(path)
			if err != nil {
				return err
			}
			// The calibration overrides must survive the schema too.
			_, err = harness.ScenarioConfig(scenario)
			return err
		}
	case "config":
		validateFile = func(path string) error {
			_, err := config.Load(path)
			return err
		}
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be scenario or config", opts.Kind))
	}

	result := ValidationResult{Valid: true}
	for _, file := range files {
		fv := FileValidation{File: file, Valid: true}
		if err := validateFile(file); err != nil {
			fv.Valid = false
			fv.Error = err.Error()
			result.Valid = false
			result.Invalid++
		}
		result.Files = append(result.Files, fv)
	}

	if opts.Format == "json" {
		return outputValidateJSON(cmd, result)
	}
	return outputValidateText(cmd, result)
}

// outputValidateJSON outputs the validation result as JSON.
func outputValidateJSON(cmd *cobra.Command, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_VALIDATION",
			Message: fmt.Sprintf("%d file(s) invalid", result.Invalid),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", result.Invalid))
	}
	return nil
}

// outputValidateText outputs the validation result as text.
func outputValidateText(cmd *cobra.Command, result ValidationResult) error {
	w := cmd.OutOrStdout()

	for _, fv := range result.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s\n", fv.File)
		} else {
			fmt.Fprintf(w, "✗ %s\n", fv.File)
			fmt.Fprintf(w, "  %s\n", fv.Error)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) invalid", result.Invalid))
	}

	fmt.Fprintln(w, "✓ All files valid")
	return nil
}
