package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/mapfile"
	"github.com/cedadev/esacci-esgf/internal/remote"
)

var (
	cacheBaseURL string
	cacheVerbose bool
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache JSON_FILE",
	Short: "Warm aggregation caches on the remote THREDDS server",
	Long: "Request the OPeNDAP or WMS endpoint of each aggregated dataset in the " +
		"JSON dataset map so the server starts building its aggregation caches. " +
		"Requests are abandoned after a short read timeout; caches keep building " +
		"in the background.",
	Args: cobra.ExactArgs(1),
	RunE: runCache,
}

func runCache(cmd *cobra.Command, args []string) error {
	m, err := mapfile.ReadMap(args[0])
	if err != nil {
		return err
	}
	c := &remote.Cacher{
		BaseURL: viper.GetString("cache.base-url"),
		Verbose: cacheVerbose,
		Output:  cmd.OutOrStdout(),
	}
	return c.CacheAll(cmd.Context(), m)
}

func init() {
	cacheCmd.Flags().StringVar(&cacheBaseURL, "base-url", "", "base THREDDS URL hosting the aggregations (e.g. http://host/thredds)")
	cacheCmd.Flags().BoolVarP(&cacheVerbose, "verbose", "v", false, "print each URL as it is requested")
	cacheCmd.MarkFlagRequired("base-url")

	viper.BindPFlag("cache.base-url", cacheCmd.Flags().Lookup("base-url"))
}
