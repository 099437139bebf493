package cmd

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/apperr"
	"github.com/cedadev/esacci-esgf/pkg/aggregation"
)

var (
	aggregateDimension string
	aggregateCache     bool
	aggregateDRS       string
)

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate [FILE]",
	Short: "Build an NcML aggregation from a list of NetCDF files",
	Long: "Build an NcML joinExisting aggregation from a list of NetCDF file paths, " +
		"read from FILE or stdin (one path per line). The NcML document is written " +
		"to stdout. With --drs, global attributes are merged across the files and " +
		"included in the aggregation.",
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

// readFileList reads newline-separated paths, skipping blank lines.
func readFileList(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, scanner.Err()
}

// fileListFromArgs reads paths from the optional file argument, with ""
// or "-" meaning stdin.
func fileListFromArgs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) == 0 || args[0] == "-" {
		return readFileList(cmd.InOrStdin())
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readFileList(f)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	paths, err := fileListFromArgs(cmd, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return apperr.User("no input files given")
	}

	agg, err := aggregation.Create(paths, aggregation.Options{
		Dimension: viper.GetString("aggregate.dimension"),
		Cache:     viper.GetBool("aggregate.cache"),
		DRS:       viper.GetString("aggregate.drs"),
	})
	if err != nil {
		return err
	}
	return aggregation.Write(cmd.OutOrStdout(), agg)
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateDimension, "dimension", "d", "time", "dimension along which to aggregate")
	aggregateCmd.Flags().BoolVarP(&aggregateCache, "cache", "c", false, "open the NetCDF files and cache coordinate values in the NcML so TDS does not need to open each file")
	aggregateCmd.Flags().StringVar(&aggregateDRS, "drs", "", "dataset DRS identifier; enables global attribute merging across the input files")

	viper.BindPFlag("aggregate.dimension", aggregateCmd.Flags().Lookup("dimension"))
	viper.BindPFlag("aggregate.cache", aggregateCmd.Flags().Lookup("cache"))
	viper.BindPFlag("aggregate.drs", aggregateCmd.Flags().Lookup("drs"))
}
