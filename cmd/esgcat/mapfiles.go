package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/mapfile"
)

var mapfilesOutDir string

// mapfilesCmd represents the mapfiles command
var mapfilesCmd = &cobra.Command{
	Use:   "mapfiles JSON_FILE",
	Short: "Write ESGF publisher mapfiles from a JSON dataset map",
	Long: "Generate one mapfile per dataset from a JSON dataset map. Mapfiles are " +
		"placed under <project>/metadata/mapfiles/by_name with one directory level " +
		"per leading DRS facet, and their paths are printed on stdout. Without " +
		"--output-dir they are written directly into the metadata directory " +
		"alongside the data.",
	Args: cobra.ExactArgs(1),
	RunE: runMapfiles,
}

func runMapfiles(cmd *cobra.Command, args []string) error {
	m, err := mapfile.ReadMap(args[0])
	if err != nil {
		return err
	}
	w := mapfile.NewWriter(viper.GetString("mapfiles.output-dir"))
	paths, err := w.WriteAll(m)
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return err
}

func init() {
	mapfilesCmd.Flags().StringVarP(&mapfilesOutDir, "output-dir", "o", "", "directory to save mapfiles in")

	viper.BindPFlag("mapfiles.output-dir", mapfilesCmd.Flags().Lookup("output-dir"))
}
