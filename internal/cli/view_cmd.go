package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/config"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/planning"
)

// viewFlags are shared by every engine command.
type viewFlags struct {
	file      string
	kind      string
	now       string
	status    string
	category  string
	priority  string
	search    string
	dueWithin int
	asJSON    bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", `JSON array of records ("-" for stdin)`)
	fl.StringVar(&f.kind, "kind", "task", "record kind: task, budget or vendor")
	fl.StringVar(&f.now, "now", "", "reference date (YYYY-MM-DD), defaults to today")
	fl.StringVar(&f.status, "status", "", "only this status")
	fl.StringVar(&f.category, "category", "", "only this category")
	fl.StringVar(&f.priority, "priority", "", "only this priority")
	fl.StringVar(&f.search, "search", "", "case-insensitive text search")
	fl.IntVar(&f.dueWithin, "due-within", -1, "only records due within N days (includes overdue)")
	fl.BoolVar(&f.asJSON, "json", false, "print JSON instead of a report")
	_ = cmd.MarkFlagRequired("file")
}

func (f *viewFlags) criteria() planning.Criteria {
	c := planning.Criteria{
		Status:     f.status,
		Category:   f.category,
		Priority:   f.priority,
		SearchText: f.search,
	}
	if f.dueWithin >= 0 {
		n := f.dueWithin
		c.DueWithinDays = &n
	}
	return c
}

func (f *viewFlags) reference(app *App) (time.Time, error) {
	if strings.TrimSpace(f.now) == "" {
		return app.Now().In(app.Location), nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(f.now), app.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: expected YYYY-MM-DD", f.now)
	}
	return t, nil
}

func (f *viewFlags) load(app *App) ([]domain.PlanningItem, error) {
	kind, ok := domain.ParseItemKind(f.kind)
	if !ok {
		return nil, fmt.Errorf("invalid --kind %q: expected task, budget or vendor", f.kind)
	}

	var (
		data []byte
		err  error
	)
	if f.file == "-" {
		data, err = io.ReadAll(app.Stdin)
	} else {
		data, err = os.ReadFile(f.file)
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	items, err := domain.DecodeItems(data, kind)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.file, err)
	}
	return items, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ============================================================
// planctl view
// ============================================================

func newViewCmd(app *App) *cobra.Command {
	var (
		flags         viewFlags
		hideCompleted bool
		bucketStats   bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Group records into due-date buckets",
		Example: `  planctl view -f tasks.json
  planctl view -f tasks.json --status pending --due-within 30 --hide-completed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := flags.load(app)
			if err != nil {
				return err
			}
			now, err := flags.reference(app)
			if err != nil {
				return err
			}

			view, err := planning.BuildView(items, flags.criteria(), now, planning.Options{
				ExcludeCompleted: hideCompleted,
				PerBucketStats:   bucketStats,
			})
			if err != nil {
				return err
			}

			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), newRenderer(app.Styled()).view(view, now))
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&hideCompleted, "hide-completed", false, "drop the Completed bucket")
	cmd.Flags().BoolVar(&bucketStats, "bucket-stats", false, "print statistics per bucket")
	return cmd
}

// ============================================================
// planctl timeframes
// ============================================================

func newTimeframesCmd(app *App) *cobra.Command {
	var (
		flags       viewFlags
		catalogPath string
	)

	cmd := &cobra.Command{
		Use:   "timeframes",
		Short: "Group records by planning phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := app.Catalog
			if catalogPath != "" {
				c, err := config.LoadCatalog(catalogPath)
				if err != nil {
					return err
				}
				catalog = c
			}

			items, err := flags.load(app)
			if err != nil {
				return err
			}
			now, err := flags.reference(app)
			if err != nil {
				return err
			}

			view, err := planning.BuildTimeframeView(items, flags.criteria(), now, planning.NewTimeframeTable(catalog.Timeframes))
			if err != nil {
				return err
			}

			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), newRenderer(app.Styled()).timeframes(view))
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "TOML catalog with timeframe labels")
	return cmd
}

// ============================================================
// planctl summary
// ============================================================

func newSummaryCmd(app *App) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print statistics and the per-category budget table",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := flags.load(app)
			if err != nil {
				return err
			}
			now, err := flags.reference(app)
			if err != nil {
				return err
			}

			filtered := planning.NewPredicate(flags.criteria(), now).Filter(items)
			stats := planning.Summarize(filtered, now)

			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			r := newRenderer(app.Styled())
			out := r.stats("Summary", stats) + "\n" + r.categoryTable(stats)
			if warnings := planning.Inspect(items); len(warnings) > 0 {
				out += "\n" + r.warnings(warnings)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	flags.register(cmd)
	return cmd
}
