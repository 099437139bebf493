package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/apperr"
	"github.com/cedadev/esacci-esgf/internal/catalog"
	"github.com/cedadev/esacci-esgf/internal/scanner"
)

var (
	scanNcML   bool
	scanAggDir string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan PATH...",
	Short: "List NetCDF or NcML files referenced by catalogs or directories",
	Long: "For each argument: a THREDDS catalog file is parsed and its referenced " +
		"NetCDF paths printed (or NcML paths with --ncml); a directory is walked " +
		"for *.nc files. Paths are printed one per line on stdout.",
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, arg := range args {
		var (
			paths []string
			err   error
		)
		switch {
		case isDir(arg):
			if scanNcML {
				return apperr.User("--ncml only applies to catalog files")
			}
			paths, err = scanner.Walk(arg)
		case scanNcML:
			paths, err = scanner.FindNcMLReferences(arg, viper.GetString("scan.agg-dir"))
		default:
			paths, err = scanner.FindNetCDFReferences(arg, scanner.DefaultDatasetRoots)
		}
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func init() {
	scanCmd.Flags().BoolVar(&scanNcML, "ncml", false, "list referenced NcML aggregation files instead of NetCDF files")
	scanCmd.Flags().StringVar(&scanAggDir, "agg-dir", catalog.DefaultAggregationsDir, "aggregations directory NcML paths are reported relative to")

	viper.BindPFlag("scan.agg-dir", scanCmd.Flags().Lookup("agg-dir"))
}
