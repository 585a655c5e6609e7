// Package cli implements planctl, a command-line front end that runs the
// aggregation engine over a JSON export of planning records.
package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/config"
)

// App holds what the commands need from the outside world.
type App struct {
	// Stdin is read when --file is "-".
	Stdin io.Reader
	// Now is the wall clock; --now overrides it.
	Now func() time.Time
	// Location is the planning time zone used to derive "today".
	Location *time.Location
	// Styled reports whether output goes to a terminal and may carry color.
	Styled func() bool
	// Catalog supplies timeframe labels when --catalog is not given.
	Catalog *config.Catalog
}

func (a *App) defaults() {
	if a.Stdin == nil {
		a.Stdin = os.Stdin
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.Location == nil {
		a.Location = time.UTC
	}
	if a.Styled == nil {
		a.Styled = func() bool { return false }
	}
	if a.Catalog == nil {
		a.Catalog = config.DefaultCatalog()
	}
}

// NewRootCmd creates the top-level "planctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	app.defaults()

	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Group, filter and summarize wedding planning records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newViewCmd(app),
		newTimeframesCmd(app),
		newSummaryCmd(app),
	)

	return root
}
