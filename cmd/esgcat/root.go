package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/ui"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "esgcat",
	Short: "Publish CCI data through ESGF: aggregations, THREDDS catalogs, mapfiles",
	Long:  longDescription,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Init(noColor)
	},

	// When invoked without a subcommand, show help instead of a plain
	// usage dump.
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	cfgFile string
	noColor bool
	version string
)

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetRootCmd returns the root command for use with fang
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.esgcat.yaml or ./config/defaults.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(aggregateCmd, partitionCmd, catalogsCmd, scanCmd,
		mapfilesCmd, transferCmd, solrCmd, cacheCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.SetConfigType("yaml")
		viper.AddConfigPath(home)
		viper.AddConfigPath("./config")

		// Try .esgcat first, then defaults.yaml
		viper.SetConfigName(".esgcat")
		err = viper.ReadInConfig()

		notFound := &viper.ConfigFileNotFoundError{}
		if err != nil && errors.As(err, notFound) {
			viper.SetConfigName("defaults")
			err = viper.ReadInConfig()
		}

		if err != nil && !errors.As(err, notFound) {
			cobra.CheckErr(err)
		}
		if err == nil {
			configMsg := ui.Dim.Render("Using config file: ") + ui.Secondary.Render(viper.ConfigFileUsed())
			fmt.Fprintln(os.Stderr, configMsg)
		}
	}

	// Environment variable support, e.g. ESGCAT_TRANSFER_SERVER for
	// transfer.server.
	viper.SetEnvPrefix("ESGCAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

const longDescription = "esgcat prepares CCI datasets for publication to ESGF: it builds NcML " +
	"aggregations from NetCDF files, rewrites THREDDS catalogs to expose them over " +
	"WMS/WCS/OPeNDAP, writes publisher mapfiles, and keeps a remote THREDDS server " +
	"and Solr index in sync."
