package elasticsearch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackvista/snapshot-reconciler/internal/config"
)

func Cmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elasticsearch",
		Short: "Reconcile Elasticsearch indices against snapshots",
	}

	cmd.AddCommand(scanCmd(cliCtx))
	cmd.AddCommand(restoreCmd(cliCtx))
	cmd.AddCommand(listSnapshotsCmd(cliCtx))
	cmd.AddCommand(showSnapshotCmd(cliCtx))
	cmd.AddCommand(listIndicesCmd(cliCtx))

	return cmd
}

// addSnapshotFlags binds the repository and pattern flags to the command-line overrides
func addSnapshotFlags(cmd *cobra.Command, cliCtx *config.Context, withPattern bool) {
	scanCfg := &cliCtx.Config.Overrides.Elasticsearch.Scan
	cmd.Flags().StringVarP(&scanCfg.Repository, "repository", "r", "", "Snapshot repository (default from configuration)")
	if withPattern {
		cmd.Flags().StringVarP(&scanCfg.SnapshotPattern, "pattern", "p", "", "Snapshot name pattern (default from configuration, else *)")
	}
}

// exitOnError prints err and terminates the process
func exitOnError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
