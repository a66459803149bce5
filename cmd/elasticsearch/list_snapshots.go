package elasticsearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackvista/snapshot-reconciler/internal/config"
	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
	"github.com/stackvista/snapshot-reconciler/internal/logger"
	"github.com/stackvista/snapshot-reconciler/internal/output"
)

func listSnapshotsCmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-snapshots",
		Short: "List successful snapshots, newest first",
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
				return runListSnapshots(cmd.Context(), s.esClient, repository, s.cfg.Elasticsearch.Scan.SnapshotPattern, s.log, formatter)
			}())
		},
	}

	addSnapshotFlags(cmd, cliCtx, true)
	return cmd
}

func runListSnapshots(ctx context.Context, esClient elasticsearch.Interface, repository, pattern string, log *logger.Logger, formatter *output.Formatter) error {
	log.Infof("Fetching snapshots '%s' from repository '%s'...", pattern, repository)
	snapshots, err := esClient.ListSnapshots(ctx, repository, pattern)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snapshots) == 0 && formatter.Format() == output.FormatTable {
		formatter.PrintMessage("No snapshots found")
		return nil
	}

	table := output.Table{
		Headers: []string{"SNAPSHOT", "INDEX COUNT", "INDICES"},
		Rows:    make([][]string, 0, len(snapshots)),
	}
	for _, snapshot := range snapshots {
		table.Rows = append(table.Rows, []string{
			snapshot.Name,
			fmt.Sprintf("%d", len(snapshot.Indices)),
			strings.Join(snapshot.Indices, ","),
		})
	}
	return formatter.PrintResult(table, snapshots)
}
