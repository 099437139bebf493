package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedadev/esacci-esgf/internal/apperr"
	"github.com/cedadev/esacci-esgf/internal/transfer"
)

var (
	transferServer   string
	transferUser     string
	transferVerbose  bool
	transferDryRun   bool
	transferCatalogs []string
	transferNcML     []string
	transferYes      bool
)

// transferCmd represents the transfer command
var transferCmd = &cobra.Command{
	Use:   "transfer MODE",
	Short: "Copy, delete or retrieve catalogs on the remote THREDDS server",
	Long: "Manage THREDDS catalogs and NcML aggregations on a remote server over " +
		"rsync and ssh. MODE is one of copy, delete or retrieve. In copy mode -c/-n " +
		"are local paths; in delete and retrieve modes they are paths relative to " +
		"the remote catalog and aggregation roots.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"copy", "delete", "retrieve"},
	RunE:      runTransfer,
}

func newTransferHandler() *transfer.Handler {
	h := transfer.NewHandler(viper.GetString("transfer.user"), viper.GetString("transfer.server"))
	h.Verbose = transferVerbose
	h.DryRun = transferDryRun
	return h
}

func confirmDelete(paths []string) error {
	if transferYes || transferDryRun {
		return nil
	}
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete remote content?").
				Description(fmt.Sprintf("This removes %d path(s) from the remote server:\n%s",
					len(paths), strings.Join(paths, "\n"))).
				Value(&confirm).
				Affirmative("Delete").
				Negative("Cancel"),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !confirm {
		return apperr.ErrCancelled
	}
	return nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	h := newTransferHandler()
	ctx := cmd.Context()

	switch args[0] {
	case "copy":
		if len(transferCatalogs) == 0 && len(transferNcML) == 0 {
			return apperr.User("nothing to copy: give -c and/or -n paths")
		}
		return h.CopyToServer(ctx, transferCatalogs, transferNcML)

	case "delete":
		if len(transferCatalogs) == 0 && len(transferNcML) == 0 {
			return apperr.User("nothing to delete: give -c and/or -n paths")
		}
		if err := confirmDelete(append(transferCatalogs, transferNcML...)); err != nil {
			return err
		}
		return h.DeleteFromServer(ctx, transferCatalogs, transferNcML)

	case "retrieve":
		var (
			content string
			err     error
		)
		switch {
		case len(transferCatalogs) == 1 && len(transferNcML) == 0:
			content, err = h.RetrieveCatalog(ctx, transferCatalogs[0])
		case len(transferNcML) == 1 && len(transferCatalogs) == 0:
			content, err = h.RetrieveNcML(ctx, transferNcML[0])
		default:
			return apperr.User("retrieve needs exactly one catalog or NcML path")
		}
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil

	default:
		return apperr.Userf("unknown mode %q (expected copy, delete or retrieve)", args[0])
	}
}

func init() {
	transferCmd.Flags().StringVarP(&transferServer, "server", "s", "cci-odp-data.ceda.ac.uk", "hostname of the remote THREDDS server")
	transferCmd.Flags().StringVarP(&transferUser, "user", "u", "root", "username to connect as")
	transferCmd.Flags().BoolVarP(&transferVerbose, "verbose", "v", false, "print rsync/ssh commands as they run")
	transferCmd.Flags().BoolVar(&transferDryRun, "dry-run", false, "print commands without running them")
	transferCmd.Flags().StringArrayVarP(&transferCatalogs, "catalog-path", "c", nil, "catalog path; repeatable")
	transferCmd.Flags().StringArrayVarP(&transferNcML, "ncml-path", "n", nil, "NcML path; repeatable")
	transferCmd.Flags().BoolVarP(&transferYes, "yes", "y", false, "skip the confirmation prompt before deleting")

	viper.BindPFlag("transfer.server", transferCmd.Flags().Lookup("server"))
	viper.BindPFlag("transfer.user", transferCmd.Flags().Lookup("user"))
}
