package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/mcpsync/internal/cli/prompt"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
	"github.com/thoreinstein/mcpsync/internal/syncer"
)

var (
	syncAll         bool
	syncStrategy    string
	syncResolutions string
	syncInteractive bool
)

// conflictResolver is the interactive prompt. Tests replace it.
var conflictResolver = func(conflicts []reconcile.Conflict) ([]reconcile.Resolution, error) {
	return prompt.NewSelector().ResolveConflicts(conflicts)
}

func init() {
	syncCmd.Flags().BoolVarP(&syncAll, "all", "a", false, "sync every enabled tool")
	syncCmd.Flags().StringVarP(&syncStrategy, "strategy", "s", "", "settle every conflict the same way: source or target")
	syncCmd.Flags().StringVar(&syncResolutions, "resolutions", "", "YAML or JSON file with one resolution per conflict")
	syncCmd.Flags().BoolVarP(&syncInteractive, "interactive", "i", false, "choose a side for each conflict")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync [tool...]",
	Short: "Copy source servers into tool config files",
	Long: `Add every source server missing from each tool's config file. Servers
only the tool has are kept as they are, and unrelated settings in the file
are preserved.

Without arguments, or with --all, every enabled tool that has a config file
is synced. Tool arguments accept glob patterns.

A server defined differently on both sides is a conflict. Conflicts are never
overwritten silently: settle them with --strategy, --resolutions or
--interactive, otherwise the tool is left untouched and the command fails.`,
	Example: `  # Sync all enabled tools
  mcpsync sync

  # Sync one tool, keeping the tool's version of conflicting servers
  mcpsync sync cursor --strategy target

  # Decide each conflict interactively
  mcpsync sync gemini-cli -i

  # Apply decisions from a file
  mcpsync sync codex --resolutions decisions.yaml

See Also: mcpsync preview, mcpsync status`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runSyncWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args)
}

func runSyncWithWriter(ctx context.Context, w io.Writer, a *app, args []string) error {
	strategy, err := parseStrategy(syncStrategy)
	if err != nil {
		return err
	}
	if err := validateResolutionFlags(strategy, syncResolutions, syncInteractive); err != nil {
		return err
	}

	if syncAll || len(args) == 0 {
		if syncInteractive || syncResolutions != "" {
			return errors.NewUserError(
				errors.New("--interactive and --resolutions need a single tool"),
				"Run: mcpsync sync <tool> --interactive",
			)
		}
		return syncEnabled(ctx, w, a, strategy)
	}

	tools, err := a.catalog.Select(args...)
	if err != nil {
		return err
	}
	if syncResolutions != "" && len(tools) > 1 {
		return errors.NewUserError(errors.New("--resolutions applies to a single tool"), "")
	}

	// One failing tool does not stop the others, as with --all.
	var results []syncer.Result
	var pending []string
	var errs []error
	for _, t := range tools {
		res, err := syncOne(ctx, a, t.ID, strategy)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "syncing %s", t.ID))
			if errors.Is(err, prompt.ErrSelectionCancelled) {
				break
			}
			continue
		}
		results = append(results, res)
		if res.Outcome == syncer.OutcomeConflictsPending {
			pending = append(pending, t.ID)
		}
	}

	if structured() {
		if err := writeStructured(w, results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			printResult(w, a, res)
		}
		if len(errs) > 1 {
			for _, err := range errs {
				printf(w, "%s %v\n", red("✗"), err)
			}
		}
	}

	if len(pending) > 0 {
		errs = append(errs, errors.Wrapf(errors.ErrConflictsPending, "unresolved conflicts in %s", strings.Join(pending, ", ")))
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// syncEnabled runs SyncAll over the enabled tools.
func syncEnabled(ctx context.Context, w io.Writer, a *app, strategy reconcile.Choice) error {
	if len(a.cfg.EnabledTools) == 0 {
		if structured() {
			return writeStructured(w, []syncer.ToolResult{})
		}
		printf(w, "No tools enabled.\nRun: mcpsync tools enable <tool>\n")
		return nil
	}

	results := a.orch.SyncAll(ctx, a.cfg.EnabledTools, strategy)
	if structured() {
		if err := writeStructured(w, results); err != nil {
			return err
		}
	} else {
		if len(results) == 0 {
			printf(w, "No enabled tool has a config file yet.\n")
		}
		for _, r := range results {
			mark := green("✓")
			if !r.Success {
				mark = red("✗")
			}
			printf(w, "%s %s: %s\n", mark, r.ToolID, r.Message)
		}
	}

	var failed, pending []string
	for _, r := range results {
		switch {
		case r.Outcome == syncer.OutcomeConflictsPending:
			pending = append(pending, r.ToolID)
		case !r.Success:
			failed = append(failed, r.ToolID)
		}
	}
	switch {
	case len(failed) > 0:
		return errors.Newf("sync failed for %s", strings.Join(append(failed, pending...), ", "))
	case len(pending) > 0:
		return errors.Wrapf(errors.ErrConflictsPending, "unresolved conflicts in %s", strings.Join(pending, ", "))
	}
	return nil
}

// syncOne collects resolutions for one tool according to the flags, then
// syncs it.
func syncOne(ctx context.Context, a *app, id string, strategy reconcile.Choice) (syncer.Result, error) {
	resolutions, err := collectResolutions(ctx, a, id, strategy, syncResolutions, syncInteractive)
	if err != nil {
		return syncer.Result{}, err
	}
	return a.orch.Sync(ctx, id, resolutions)
}

// collectResolutions returns nil when no flag settles conflicts.
func collectResolutions(ctx context.Context, a *app, id string, strategy reconcile.Choice, file string, interactive bool) ([]reconcile.Resolution, error) {
	switch {
	case file != "":
		return loadResolutions(file)
	case strategy != "":
		p, err := a.orch.Preview(ctx, id)
		if err != nil {
			return nil, err
		}
		return reconcile.ResolveAll(p.Result, strategy), nil
	case interactive:
		p, err := a.orch.Preview(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(p.Result.Conflicts) == 0 {
			return nil, nil
		}
		resolutions, err := conflictResolver(p.Result.Conflicts)
		if err != nil {
			if errors.Is(err, prompt.ErrSelectionCancelled) {
				return nil, errors.NewUserError(err, "Nothing was written")
			}
			return nil, err
		}
		return resolutions, nil
	default:
		return nil, nil
	}
}

// parseStrategy accepts source or target; custom needs a server per
// conflict and is only valid in a resolutions file.
func parseStrategy(s string) (reconcile.Choice, error) {
	if s == "" {
		return "", nil
	}
	c, err := reconcile.ParseChoice(s)
	if err == nil && c == reconcile.ChoiceCustom {
		err = errors.Wrap(errors.ErrInvalidConfig, "custom resolutions need a --resolutions file")
	}
	if err != nil {
		return "", errors.NewUserError(err, "Use --strategy source or --strategy target")
	}
	return c, nil
}

func validateResolutionFlags(strategy reconcile.Choice, file string, interactive bool) error {
	set := 0
	for _, on := range []bool{strategy != "", file != "", interactive} {
		if on {
			set++
		}
	}
	if set > 1 {
		return errors.NewUserError(
			errors.New("--strategy, --resolutions and --interactive are mutually exclusive"),
			"",
		)
	}
	return nil
}

// loadResolutions reads a YAML or JSON list of resolutions. YAML is
// converted to JSON first so custom servers decode with their JSON codec.
func loadResolutions(path string) ([]reconcile.Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.MarkIO(err, path), "reading resolutions")
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidFormat), "parsing %s", path)
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidFormat), "parsing %s", path)
	}
	var resolutions []reconcile.Resolution
	if err := json.Unmarshal(asJSON, &resolutions); err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidFormat), "parsing %s", path)
	}
	for _, r := range resolutions {
		if _, err := reconcile.ParseChoice(string(r.Choice)); err != nil {
			return nil, errors.Wrapf(err, "resolution for %q", r.Name)
		}
	}
	return resolutions, nil
}

func printResult(w io.Writer, a *app, res syncer.Result) {
	path := a.resolver.Contract(res.Path)
	switch res.Outcome {
	case syncer.OutcomeConflictsPending:
		printf(w, "%s %s (%s): %s\n", red("✗"), res.ToolID, path, outcomeLabel(res.Outcome))
		for _, c := range res.Merge.Conflicts {
			printf(w, "    %s\n", c.Name)
		}
	default:
		printf(w, "%s %s (%s): %s, %s\n", green("✓"), res.ToolID, path, outcomeLabel(res.Outcome), res.Message)
	}
}
