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

func listIndicesCmd(cliCtx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list-indices",
		Short: "List Elasticsearch indices",
		Run: func(cmd *cobra.Command, _ []string) {
			exitOnError(func() error {
				s, err := newSession(cliCtx)
				if err != nil {
					return err
				}
				defer s.Close()

				formatter := output.NewFormatter(cliCtx.Config.OutputFormat)
				return runListIndices(cmd.Context(), s.esClient, s.log, formatter)
			}())
		},
	}
}

func runListIndices(ctx context.Context, esClient elasticsearch.Interface, log *logger.Logger, formatter *output.Formatter) error {
	log.Infof("Fetching Elasticsearch indices...")
	indices, err := esClient.ListIndicesDetailed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indices: %w", err)
	}

	if len(indices) == 0 && formatter.Format() == output.FormatTable {
		formatter.PrintMessage("No indices found")
		return nil
	}

	table := output.Table{
		Headers: []string{"HEALTH", "STATUS", "INDEX", "UUID", "PRI", "REP", "DOCS.COUNT", "STORE.SIZE", "PRI.STORE.SIZE"},
		Rows:    make([][]string, 0, len(indices)),
	}
	for _, idx := range indices {
		table.Rows = append(table.Rows, []string{
			idx.Health,
			idx.Status,
			idx.Index,
			idx.UUID,
			idx.Pri,
			idx.Rep,
			idx.DocsCount,
			idx.StoreSize,
			idx.PriStoreSize,
		})
	}
	return formatter.PrintTable(table)
}
