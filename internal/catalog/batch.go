package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cedadev/esacci-esgf/internal/logging"
)

// Batch processes a directory of dataset catalogs and regenerates the
// top-level catalog that links them together.
type Batch struct {
	InDir      string // input catalogs
	OutDir     string // transformed catalogs
	AggDir     string // NcML output
	CatalogIn  string // top-level catalog template
	CatalogOut string // top-level catalog output path

	Rules   []Rule
	Options Options

	// OnResult, when set, is called after each catalog with the error
	// it produced, if any. Used to drive progress display.
	OnResult func(basename string, err error)
}

// Basenames lists the catalog files in dir (default: the input
// directory), sorted by name.
func (b *Batch) Basenames(dir string) ([]string, error) {
	if dir == "" {
		dir = b.InDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "esacci") && strings.HasSuffix(name, ".xml") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ProcessFile transforms one catalog, writing the result and its NcML
// aggregations to the batch output directories.
func (b *Batch) ProcessFile(basename string) error {
	overrides, err := MatchRule(b.Rules, basename)
	if err != nil {
		return err
	}
	opts := b.Options
	if overrides.ValidFilePattern != "" {
		opts.ValidFilePattern = overrides.ValidFilePattern
	}
	if overrides.Aggregation != "" {
		opts.Aggregation = overrides.Aggregation
	}

	c, err := Open(filepath.Join(b.InDir, basename), opts)
	if err != nil {
		return err
	}
	if err := c.Apply(); err != nil {
		return err
	}
	return c.Write(filepath.Join(b.OutDir, basename), b.AggDir)
}

// Run processes each named catalog, then rebuilds the top-level catalog
// from whatever ended up in the output directory. A failing catalog is
// reported and skipped so one broken dataset cannot sink the batch.
func (b *Batch) Run(basenames []string) error {
	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return err
	}
	for _, name := range basenames {
		err := b.ProcessFile(name)
		if err != nil {
			logging.Warnf("%s failed: %v", name, err)
		}
		if b.OnResult != nil {
			b.OnResult(name, err)
		}
	}
	return b.writeTopLevel()
}

func (b *Batch) writeTopLevel() error {
	top, err := OpenTopLevel(b.CatalogIn)
	if err != nil {
		return err
	}
	processed, err := b.Basenames(b.OutDir)
	if err != nil {
		return err
	}
	for _, name := range processed {
		if !strings.HasSuffix(name, ".xml") {
			return fmt.Errorf("unexpected catalog name %q", name)
		}
		top.AddRef(filepath.Join("1", name), strings.TrimSuffix(name, ".xml"), "")
	}
	return top.Write(b.CatalogOut)
}
