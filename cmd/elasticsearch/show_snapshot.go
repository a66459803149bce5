package elasticsearch

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackvista/snapshot-reconciler/internal/config"
	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
	"github.com/stackvista/snapshot-reconciler/internal/logger"
	"github.com/stackvista/snapshot-reconciler/internal/output"
)

const (
	indexStatusPresent = "present"
	indexStatusMissing = "missing"
)

func showSnapshotCmd(cliCtx *config.Context) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "show-snapshot",
		Short: "Show the indices of a snapshot and whether they exist in the cluster",
		Run: func(cmd *cobra.Command, _ []string) {
			exitOnError(func() error {
				s, err := newSession(cliCtx)
				if err != nil {
					return err
				}
				defer s.Close()

				repository, err := s.repository()
				if err != nil {
					return err
				}
				formatter := output.NewFormatter(cliCtx.Config.OutputFormat)
				return runShowSnapshot(cmd.Context(), s.esClient, repository, name, s.log, formatter)
			}())
		},
	}

	addSnapshotFlags(cmd, cliCtx, false)
	cmd.Flags().StringVarP(&name, "snapshot", "s", "", "Snapshot name (required)")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runShowSnapshot(ctx context.Context, esClient elasticsearch.Interface, repository, name string, log *logger.Logger, formatter *output.Formatter) error {
	snapshot, err := esClient.GetSnapshot(ctx, repository, name)
	if err != nil {
		return fmt.Errorf("failed to get snapshot details: %w", err)
	}

	live, err := esClient.ListIndices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indices: %w", err)
	}
	present := make(map[string]bool, len(live))
	for _, index := range live {
		present[index] = true
	}

	log.Infof("Snapshot '%s' (state: %s, started: %s) contains %d index(es)", snapshot.Snapshot, snapshot.State, snapshot.StartTime, len(snapshot.Indices))

	table := output.Table{
		Headers: []string{"INDEX", "STATUS"},
		Rows:    make([][]string, 0, len(snapshot.Indices)),
	}
	missing := 0
	for _, index := range snapshot.Indices {
		status := indexStatusPresent
		if !present[index] {
			status = indexStatusMissing
			missing++
		}
		table.Rows = append(table.Rows, []string{index, status})
	}
	log.Debugf("%d of %d index(es) missing from the cluster", missing, len(snapshot.Indices))

	return formatter.PrintTable(table)
}
