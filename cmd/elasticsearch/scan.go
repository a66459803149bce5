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
	"github.com/stackvista/snapshot-reconciler/internal/scan"
)

func scanCmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Restore indices missing from the cluster",
		Long: `Compare the live indices against the successful snapshots of a repository and restore
every missing index from the most recent snapshot that contains it. Snapshot names are
expected to sort chronologically.`,
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
				return runScan(cmd.Context(), s.esClient, repository, s.cfg.Elasticsearch.Scan.SnapshotPattern, s.log, formatter)
			}())
		},
	}

	addSnapshotFlags(cmd, cliCtx, true)
	return cmd
}

func runScan(ctx context.Context, esClient elasticsearch.Interface, repository, pattern string, log *logger.Logger, formatter *output.Formatter) error {
	log.Infof("Scanning snapshots '%s' in repository '%s'...", pattern, repository)

	result, err := scan.New(esClient).Scan(ctx, repository, pattern, logObserver(log))
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	log.Println()
	log.Successf("Restored %d index(es) from %d snapshot(s)", result.Restored(), len(result))

	if len(result) == 0 && formatter.Format() == output.FormatTable {
		formatter.PrintMessage("No indices restored")
		return nil
	}

	table := output.Table{
		Headers: []string{"SNAPSHOT", "RESTORED", "INDICES"},
		Rows:    make([][]string, 0, len(result)),
	}
	for _, name := range result.Snapshots() {
		indices := result[name]
		table.Rows = append(table.Rows, []string{name, fmt.Sprintf("%d", len(indices)), strings.Join(indices, ",")})
	}
	return formatter.PrintResult(table, result)
}

// logObserver reports scan progress through the operational logger
func logObserver(log *logger.Logger) scan.Observer {
	return func(e scan.Event) {
		switch e.Kind {
		case scan.EventNotice:
			log.Warningf("%s", e.Message)
		case scan.EventRestoreFailed:
			log.Warningf("%s", e.Message)
			if e.Err != nil {
				log.Debugf("  %v", e.Err)
			}
		case scan.EventIndices:
			log.Debugf("Claimed %d missing index(es)", len(e.Indices))
			for _, index := range e.Indices {
				log.Debugf("  - %s", index)
			}
		default:
			log.Infof("%s", e.Message)
		}
	}
}
