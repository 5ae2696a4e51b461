package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/packplan/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan and weighing commands
type Config struct {
	PlanFile     string
	WeighingFile string
	CatalogFile  string
	MatchFile    string
	MatchGoodID  int64
	OutputDir    string
	Format       string
	Verbose      bool
	Submit       bool
	Help         bool
}

func (c Config) output(elapsed time.Duration) output.Config {
	return output.Config{
		Format:    c.Format,
		OutputDir: c.OutputDir,
		Verbose:   c.Verbose,
		Elapsed:   elapsed,
	}
}

func requireFile(name, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s file not found: %s", name, path)
	}
	return nil
}

func (c Config) validateFiles() error {
	for _, f := range []struct{ name, path string }{
		{"plan", c.PlanFile},
		{"weighing", c.WeighingFile},
		{"catalog", c.CatalogFile},
		{"shipment match", c.MatchFile},
	} {
		if err := requireFile(f.name, f.path); err != nil {
			return err
		}
	}
	return nil
}

// withCatalog loads the catalog file into base when one is configured
func (c Config) withCatalog(loader *csv.Loader, base session.Config) (session.Config, error) {
	if c.CatalogFile == "" {
		return base, nil
	}
	catalog, err := loader.LoadCatalog(c.CatalogFile)
	if err != nil {
		return base, fmt.Errorf("error loading catalog: %w", err)
	}
	base.Catalog = catalog
	return base, nil
}
