package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/solr"
)

var (
	solrURL   string
	solrQuery string
	solrQuiet bool
)

// solrCmd represents the solr command
var solrCmd = &cobra.Command{
	Use:   "solr",
	Short: "Fix WMS/WCS links indexed in Solr",
	Long: "Page through the Solr index and append GetCapabilities query parameters " +
		"to WMS and WCS access URLs that lack them, so that links shown on the " +
		"portal work directly. Updated documents are posted back to the index.",
	RunE: runSolr,
}

func runSolr(cmd *cobra.Command, args []string) error {
	if !solrQuiet {
		solr.SetLogger(os.Stderr)
	}
	c := &solr.Client{BaseURL: viper.GetString("solr.url")}
	updated, err := c.PatchAll(cmd.Context(), viper.GetString("solr.query"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated %d documents\n", updated)
	return nil
}

func init() {
	solrCmd.Flags().StringVar(&solrURL, "url", "http://esgf-index1.ceda.ac.uk:8984/solr/datasets", "Solr core URL")
	solrCmd.Flags().StringVarP(&solrQuery, "query", "q", "esacci", "query selecting the documents to patch")
	solrCmd.Flags().BoolVar(&solrQuiet, "quiet", false, "suppress per-document progress output")

	viper.BindPFlag("solr.url", solrCmd.Flags().Lookup("url"))
	viper.BindPFlag("solr.query", solrCmd.Flags().Lookup("query"))
}
