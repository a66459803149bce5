package elasticsearch

import (
	"context"
	"sync"

	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
	"github.com/stackvista/snapshot-reconciler/internal/logger"
)

// mockESClient is a mock implementation of elasticsearch.Interface for command tests
type mockESClient struct {
	mu sync.Mutex

	snapshots []elasticsearch.SnapshotRecord
	snapshot  *elasticsearch.Snapshot
	indices   []string
	detailed  []elasticsearch.IndexInfo

	snapshotsErr error
	snapshotErr  error
	indicesErr   error
	restoreErr   error

	restored []string
}

func (m *mockESClient) ListSnapshots(_ context.Context, _, _ string) ([]elasticsearch.SnapshotRecord, error) {
	if m.snapshotsErr != nil {
		return nil, m.snapshotsErr
	}
	return m.snapshots, nil
}

func (m *mockESClient) GetSnapshot(_ context.Context, _, _ string) (*elasticsearch.Snapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	return m.snapshot, nil
}

func (m *mockESClient) RestoreIndices(_ context.Context, _, snapshotName, indexCSV string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restored = append(m.restored, snapshotName+":"+indexCSV)
	return m.restoreErr
}

func (m *mockESClient) ListIndices(_ context.Context) ([]string, error) {
	if m.indicesErr != nil {
		return nil, m.indicesErr
	}
	return m.indices, nil
}

func (m *mockESClient) ListIndicesDetailed(_ context.Context) ([]elasticsearch.IndexInfo, error) {
	if m.indicesErr != nil {
		return nil, m.indicesErr
	}
	return m.detailed, nil
}

var _ elasticsearch.Interface = (*mockESClient)(nil)

func quietLogger() *logger.Logger {
	return logger.New(true, false)
}
