package elasticsearch

import "context"

// Interface defines the contract for Elasticsearch client operations
// This interface allows for easy mocking in tests
type Interface interface {
	// Snapshot operations
	ListSnapshots(ctx context.Context, repository, pattern string) ([]SnapshotRecord, error)
	GetSnapshot(ctx context.Context, repository, snapshotName string) (*Snapshot, error)
	RestoreIndices(ctx context.Context, repository, snapshotName, indexCSV string) error

	// Index operations
	ListIndices(ctx context.Context) ([]string, error)
	ListIndicesDetailed(ctx context.Context) ([]IndexInfo, error)
}

// Ensure *Client implements Interface
var _ Interface = (*Client)(nil)
