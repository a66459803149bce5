package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackvista/snapshot-reconciler/internal/config"
	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
	"github.com/stackvista/snapshot-reconciler/internal/logger"
)

// Restore command flags
var (
	snapshotName   string
	restoreIndices []string
)

func restoreCmd(cliCtx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore specific indices from a snapshot",
		Long:  `Restore a comma-separated list of indices from one snapshot. Fails unless the cluster accepts the restore.`,
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
				return runRestore(cmd.Context(), s.esClient, repository, snapshotName, restoreIndices, s.log)
			}())
		},
	}

	addSnapshotFlags(cmd, cliCtx, false)
	cmd.Flags().StringVarP(&snapshotName, "snapshot", "s", "", "Snapshot name to restore from (required)")
	cmd.Flags().StringSliceVarP(&restoreIndices, "indices", "i", nil, "Comma-separated indices to restore (required)")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("indices")
	return cmd
}

func runRestore(ctx context.Context, esClient elasticsearch.Interface, repository, snapshot string, indices []string, log *logger.Logger) error {
	indexCSV := joinIndices(indices)
	if indexCSV == "" {
		return fmt.Errorf("at least one index is required")
	}

	log.Infof("Restoring '%s' from snapshot '%s' in repository '%s'...", indexCSV, snapshot, repository)

	if err := esClient.RestoreIndices(ctx, repository, snapshot, indexCSV); err != nil {
		if errors.Is(err, elasticsearch.ErrRestoreNotAccepted) {
			return fmt.Errorf("cluster did not accept the restore: %w", err)
		}
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	log.Successf("Restore of %d index(es) accepted", strings.Count(indexCSV, ",")+1)
	return nil
}

// joinIndices trims and joins index names, dropping empty entries
func joinIndices(indices []string) string {
	kept := make([]string, 0, len(indices))
	for _, index := range indices {
		if index = strings.TrimSpace(index); index != "" {
			kept = append(kept, index)
		}
	}
	return strings.Join(kept, ",")
}
