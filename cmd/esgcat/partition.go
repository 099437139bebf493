package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cedadev/esacci-esgf/internal/apperr"
	"github.com/cedadev/esacci-esgf/internal/partition"
)

// partitionCmd represents the partition command
var partitionCmd = &cobra.Command{
	Use:   "partition [FILE]",
	Short: "Partition file paths into aggregatable groups",
	Long: "Read NetCDF file paths from FILE or stdin and partition them into groups " +
		"whose paths differ only by dates in directory components. The masked " +
		"directory name of each group is printed on stdout, in input order.",
	Args: cobra.MaximumNArgs(1),
	RunE: runPartition,
}

func runPartition(cmd *cobra.Command, args []string) error {
	paths, err := fileListFromArgs(cmd, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return apperr.User("no input files given")
	}

	for _, key := range partition.Keys(paths) {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return nil
}
