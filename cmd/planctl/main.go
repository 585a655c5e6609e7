package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/cli"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/config"
)

func main() {
	cfg := config.Load()

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	app := &cli.App{
		Stdin:    os.Stdin,
		Now:      time.Now,
		Location: loc,
		Catalog:  catalog,
		Styled: func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
