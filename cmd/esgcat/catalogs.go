package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/apperr"
	"github.com/cedadev/esacci-esgf/internal/catalog"
	"github.com/cedadev/esacci-esgf/internal/ui"
)

var (
	catalogsAll     bool
	catalogsInDir   string
	catalogsOutDir  string
	catalogsAggDir  string
	catalogsTopIn   string
	catalogsRules   string
	catalogsCache   bool
	catalogsNoWCS   bool
	catalogsPlain   bool
	catalogsAggBase string
)

// catalogsCmd represents the catalogs command
var catalogsCmd = &cobra.Command{
	Use:   "catalogs [CATALOG...]",
	Short: "Rewrite THREDDS catalogs to publish NcML aggregations",
	Long: "Transform THREDDS dataset catalogs: strip access restrictions, add WMS/WCS " +
		"services and viewer metadata, and attach an NcML aggregation per dataset. " +
		"Transformed catalogs, NcML files and a regenerated top-level catalog are " +
		"written to the output directories. Give catalog base names as arguments, " +
		"or -a to process every catalog in the input directory.",
	RunE: runCatalogs,
}

func runCatalogs(cmd *cobra.Command, args []string) error {
	rules, err := catalog.LoadRules(viper.GetString("catalogs.rules"))
	if err != nil {
		return err
	}

	b := &catalog.Batch{
		InDir:      viper.GetString("catalogs.input-dir"),
		OutDir:     viper.GetString("catalogs.output-dir"),
		AggDir:     viper.GetString("catalogs.agg-dir"),
		CatalogIn:  viper.GetString("catalogs.top-level"),
		CatalogOut: filepath.Join(viper.GetString("catalogs.output-dir"), "catalog.xml"),
		Rules:      rules,
		Options: catalog.Options{
			WithWCS:         !catalogsNoWCS,
			WithCache:       viper.GetBool("catalogs.cache"),
			AggregationsDir: viper.GetString("catalogs.remote-agg-dir"),
		},
	}

	var names []string
	if catalogsAll {
		if len(args) > 0 {
			return apperr.User("-a cannot be combined with catalog arguments")
		}
		names, err = b.Basenames("")
		if err != nil {
			return err
		}
	} else {
		if len(args) == 0 {
			return apperr.User("give catalog base names, or -a for all catalogs in the input directory")
		}
		for _, arg := range args {
			names = append(names, filepath.Base(arg))
		}
	}
	if len(names) == 0 {
		return apperr.User("no catalogs to process")
	}

	// A live progress display is only worth it for interactive batch
	// runs; --plain keeps output scriptable.
	if catalogsPlain {
		b.OnResult = func(basename string, err error) {
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), basename)
			}
		}
		return b.Run(names)
	}

	tracker := ui.NewBatchTracker(names)
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	b.OnResult = func(basename string, err error) {
		i := index[basename]
		if err != nil {
			tracker.Update(i, ui.StatusFailed, err.Error())
		} else {
			tracker.Update(i, ui.StatusComplete, "")
		}
		if i+1 < len(names) {
			tracker.Update(i+1, ui.StatusRunning, "")
		}
	}

	tracker.Start("Processing THREDDS catalogs")
	tracker.Update(0, ui.StatusRunning, "")
	err = b.Run(names)
	tracker.Complete(err)
	return err
}

func init() {
	catalogsCmd.Flags().BoolVarP(&catalogsAll, "all", "a", false, "process all catalogs found in the input directory")
	catalogsCmd.Flags().StringVar(&catalogsInDir, "input-dir", "input_catalogs", "directory containing input catalogs")
	catalogsCmd.Flags().StringVar(&catalogsOutDir, "output-dir", "output_catalogs", "directory to write transformed catalogs to")
	catalogsCmd.Flags().StringVar(&catalogsAggDir, "agg-dir", "aggregations", "directory to write NcML aggregations to")
	catalogsCmd.Flags().StringVar(&catalogsTopIn, "top-level", "catalog_in.xml", "top-level catalog template")
	catalogsCmd.Flags().StringVar(&catalogsRules, "rules", "", "YAML rule file for per-dataset overrides (default: built-in rules)")
	catalogsCmd.Flags().BoolVar(&catalogsCache, "cache", false, "read coordinate values into the NcML while aggregating")
	catalogsCmd.Flags().BoolVar(&catalogsNoWCS, "no-wcs", false, "do not add WCS services")
	catalogsCmd.Flags().BoolVar(&catalogsPlain, "plain", false, "plain line output instead of the progress display")
	catalogsCmd.Flags().StringVar(&catalogsAggBase, "remote-agg-dir", catalog.DefaultAggregationsDir, "server-side directory NcML references point into")

	viper.BindPFlag("catalogs.input-dir", catalogsCmd.Flags().Lookup("input-dir"))
	viper.BindPFlag("catalogs.output-dir", catalogsCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("catalogs.agg-dir", catalogsCmd.Flags().Lookup("agg-dir"))
	viper.BindPFlag("catalogs.top-level", catalogsCmd.Flags().Lookup("top-level"))
	viper.BindPFlag("catalogs.rules", catalogsCmd.Flags().Lookup("rules"))
	viper.BindPFlag("catalogs.cache", catalogsCmd.Flags().Lookup("cache"))
	viper.BindPFlag("catalogs.remote-agg-dir", catalogsCmd.Flags().Lookup("remote-agg-dir"))
}
