package commands

import (
	"context"
	"io"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/internal/doctor"
	"github.com/thoreinstein/mcpsync/internal/errors"
)

var (
	doctorFix bool
	doctorAll bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "repair fixable issues such as loose file permissions")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false, "show passing checks too")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration issues",
	Long: `Run diagnostic checks on the mcpsync config, the source of truth and the
config files of enabled tools.

Checks:
  config            the mcpsync config file loads
  source            the source servers parse and are valid
  tool-files        every enabled tool's config file parses
  path-safety       tool config paths are in known config directories
  file-permissions  config files are not writable by group or others

Path and permission checks are skipped with --remote.

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  # Show problems only
  mcpsync doctor

  # Show every check and repair what can be repaired
  mcpsync doctor --all --fix

  # Machine-readable report
  mcpsync doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// Sentinels for the doctor exit codes.
var (
	errDoctorWarnings = errors.New("doctor found warnings")
	errDoctorErrors   = errors.New("doctor found errors")
)

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if configLoadErr != nil {
		runner := doctor.NewRunner(&doctor.ConfigCheck{Path: configPath(), Err: configLoadErr})
		return runDoctorWithWriter(ctx, cmd.OutOrStdout(), runner)
	}
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return runDoctorWithWriter(ctx, cmd.OutOrStdout(), doctorRunner(a))
}

// doctorRunner registers the checks for a. Checks that inspect the local
// filesystem are left out for a remote target.
func doctorRunner(a *app) *doctor.Runner {
	runner := doctor.NewRunner(
		&doctor.ConfigCheck{Path: a.cfgPath},
		&doctor.SourceCheck{Source: a.source},
		&doctor.ToolFilesCheck{Reader: a.orch, IDs: a.cfg.EnabledTools},
	)
	if a.remote != nil {
		return runner
	}

	toolPaths := make(map[string]string, len(a.cfg.EnabledTools))
	for _, id := range a.cfg.EnabledTools {
		t, err := a.catalog.Lookup(id)
		if err != nil {
			continue
		}
		if p, err := a.orch.ToolPath(t); err == nil {
			toolPaths[id] = p
		}
	}
	runner.AddCheck(&doctor.PathSafetyCheck{
		Classifier: classifierFunc(a.resolver),
		Paths:      toolPaths,
		AllowWarn:  a.cfg.AllowUnsafePaths || forceFlag,
	})

	files := lo.Values(toolPaths)
	slices.Sort(files)
	files = append([]string{a.cfgPath, a.source.Path()}, files...)
	runner.AddCheck(doctor.NewPermissionCheck(a.local.Fs(), lo.Uniq(files)...))
	return runner
}

// doctorOutput is the structured form of a doctor run.
type doctorOutput struct {
	*doctor.Report
	Fixes []doctor.FixResult `json:"fixes,omitempty"`
}

func runDoctorWithWriter(ctx context.Context, w io.Writer, runner *doctor.Runner) error {
	report := runner.Run(ctx)
	var fixes []doctor.FixResult
	if doctorFix {
		fixes = runner.Fix(ctx)
		if len(fixes) > 0 {
			// Re-run so the report and exit code reflect the repaired state.
			report = runner.Run(ctx)
		}
	}

	if structured() {
		if err := writeStructured(w, doctorOutput{Report: report, Fixes: fixes}); err != nil {
			return err
		}
	} else {
		printDoctorReport(w, report, fixes)
	}

	switch {
	case report.HasErrors():
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	case report.HasWarnings():
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

func printDoctorReport(w io.Writer, report *doctor.Report, fixes []doctor.FixResult) {
	shown := false
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !doctorAll && !problem {
			continue
		}
		shown = true
		printf(w, "%s [%s] %s: %s\n", doctorIcon(result.Status), result.Category, result.Name, result.Message)
		if problem {
			keys := lo.Keys(result.Details)
			slices.Sort(keys)
			for _, k := range keys {
				printf(w, "    %s: %v\n", k, result.Details[k])
			}
			if result.FixHint != "" {
				printf(w, "  hint: %s\n", result.FixHint)
			}
		}
	}

	for _, f := range fixes {
		if f.Fixed {
			printf(w, "%s fixed %s: %s\n", green("✓"), f.Path, f.Description)
		} else {
			printf(w, "%s %s: %s\n", red("✗"), f.Path, f.Description)
		}
	}

	if shown || len(fixes) > 0 {
		printf(w, "\n")
	}
	printf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func doctorIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return green("✓")
	case doctor.SeverityInfo:
		return gray("ℹ")
	case doctor.SeverityWarning:
		return yellow("⚠")
	case doctor.SeverityError:
		return red("✗")
	default:
		return "?"
	}
}
