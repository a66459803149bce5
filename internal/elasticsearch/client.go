// Package elasticsearch provides the cluster client used by the reconciler:
// listing live indices, listing successful snapshots and restoring indices
// from a snapshot.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/stackvista/snapshot-reconciler/internal/connection"
)

// snapshotStateSuccess is the only snapshot state eligible as a restore source
const snapshotStateSuccess = "SUCCESS"

// DefaultIgnoreIndexSettings are dropped from restored indices so they are not
// pinned to the topology of the cluster that took the snapshot
var DefaultIgnoreIndexSettings = []string{"index.routing.allocation.require.data_type_tag"}

// Client represents an Elasticsearch client
type Client struct {
	es                  *elasticsearch.Client
	ignoreIndexSettings []string
}

// Option configures a Client
type Option func(*Client)

// WithIgnoreIndexSettings overrides the index settings ignored on restore
func WithIgnoreIndexSettings(settings []string) Option {
	return func(c *Client) {
		if len(settings) > 0 {
			c.ignoreIndexSettings = append([]string(nil), settings...)
		}
	}
}

// IndexInfo represents detailed information about an Elasticsearch index
type IndexInfo struct {
	Health       string `json:"health"`
	Status       string `json:"status"`
	Index        string `json:"index"`
	UUID         string `json:"uuid"`
	Pri          string `json:"pri"`
	Rep          string `json:"rep"`
	DocsCount    string `json:"docs.count"`
	StoreSize    string `json:"store.size"`
	PriStoreSize string `json:"pri.store.size"`
}

// Snapshot represents an Elasticsearch snapshot descriptor
type Snapshot struct {
	Snapshot         string   `json:"snapshot"`
	UUID             string   `json:"uuid"`
	Repository       string   `json:"repository"`
	State            string   `json:"state"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	DurationInMillis int64    `json:"duration_in_millis"`
	Indices          []string `json:"indices"`
}

// SnapshotsResponse represents the response from Elasticsearch snapshots API
type SnapshotsResponse struct {
	Snapshots []Snapshot `json:"snapshots"`
	Total     int        `json:"total"`
	Remaining int        `json:"remaining"`
}

// SnapshotRecord is a successfully completed snapshot and the indices it captured
type SnapshotRecord struct {
	Name    string   `json:"name"`
	Indices []string `json:"indices"`
}

type restoreRequest struct {
	Indices             string   `json:"indices"`
	IgnoreIndexSettings []string `json:"ignore_index_settings"`
}

type restoreResponse struct {
	Accepted bool `json:"accepted"`
}

// NewClient creates a new Elasticsearch client for the cluster described by info
func NewClient(info *connection.Info, opts ...Option) (*Client, error) {
	if err := connection.Verify(info); err != nil {
		return nil, err
	}

	cfg := elasticsearch.Config{
		Addresses:    []string{info.BaseURL()},
		Username:     info.Username(),
		Password:     info.Password(),
		DisableRetry: true,
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	c := &Client{
		es:                  es,
		ignoreIndexSettings: DefaultIgnoreIndexSettings,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IgnoreIndexSettings returns the index settings ignored on restore
func (c *Client) IgnoreIndexSettings() []string {
	return append([]string(nil), c.ignoreIndexSettings...)
}

// ListIndices returns the names of all indices present in the cluster
func (c *Client) ListIndices(ctx context.Context) ([]string, error) {
	res, err := c.es.Cat.Indices(
		c.es.Cat.Indices.WithContext(ctx),
		c.es.Cat.Indices.WithH("index"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseIndexLines(buf.String()), nil
}

// parseIndexLines splits the plain-text cat output into index names
func parseIndexLines(body string) []string {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return []string{}
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

// ListIndicesDetailed retrieves detailed information about all indices
func (c *Client) ListIndicesDetailed(ctx context.Context) ([]IndexInfo, error) {
	res, err := c.es.Cat.Indices(
		c.es.Cat.Indices.WithContext(ctx),
		c.es.Cat.Indices.WithH("health,status,index,uuid,pri,rep,docs.count,store.size,pri.store.size"),
		c.es.Cat.Indices.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list indices: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var indices []IndexInfo
	if err := json.NewDecoder(res.Body).Decode(&indices); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return indices, nil
}

// ListSnapshots returns the successful snapshots of repository matching pattern,
// sorted by name descending. A missing repository or an unmatched pattern
// yields an empty list.
func (c *Client) ListSnapshots(ctx context.Context, repository, pattern string) ([]SnapshotRecord, error) {
	res, err := c.es.Snapshot.Get(
		repository,
		[]string{pattern},
		c.es.Snapshot.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return []SnapshotRecord{}, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var snapshotsResp SnapshotsResponse
	if err := json.NewDecoder(res.Body).Decode(&snapshotsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return successfulSnapshots(snapshotsResp.Snapshots), nil
}

func successfulSnapshots(snapshots []Snapshot) []SnapshotRecord {
	records := make([]SnapshotRecord, 0, len(snapshots))
	for _, s := range snapshots {
		if s.State != snapshotStateSuccess {
			continue
		}
		indices := s.Indices
		if indices == nil {
			indices = []string{}
		}
		records = append(records, SnapshotRecord{Name: s.Snapshot, Indices: indices})
	}
	// Names are expected to sort in the order the snapshots were taken
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name > records[j].Name
	})
	return records
}

// GetSnapshot retrieves details of a specific snapshot including its indices
func (c *Client) GetSnapshot(ctx context.Context, repository, snapshotName string) (*Snapshot, error) {
	res, err := c.es.Snapshot.Get(
		repository,
		[]string{snapshotName},
		c.es.Snapshot.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	var snapshotsResp SnapshotsResponse
	if err := json.NewDecoder(res.Body).Decode(&snapshotsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(snapshotsResp.Snapshots) == 0 {
		return nil, fmt.Errorf("snapshot %s not found", snapshotName)
	}

	return &snapshotsResp.Snapshots[0], nil
}

// RestoreIndices requests restoration of the comma-separated indices from a snapshot.
// It succeeds only when the cluster acknowledges the request.
func (c *Client) RestoreIndices(ctx context.Context, repository, snapshotName, indexCSV string) error {
	restoreErr := func(kind, cause error, detail string) error {
		return &RestoreError{
			Repository: repository,
			Snapshot:   snapshotName,
			Indices:    indexCSV,
			Kind:       kind,
			Cause:      cause,
			Detail:     detail,
		}
	}

	bodyJSON, err := json.Marshal(restoreRequest{
		Indices:             indexCSV,
		IgnoreIndexSettings: c.ignoreIndexSettings,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	res, err := c.es.Snapshot.Restore(
		repository,
		snapshotName,
		c.es.Snapshot.Restore.WithContext(ctx),
		c.es.Snapshot.Restore.WithBody(bytes.NewReader(bodyJSON)),
	)
	if err != nil {
		return restoreErr(ErrRestoreRequestFailed, err, "")
	}
	defer res.Body.Close()

	if res.IsError() {
		return restoreErr(ErrRestoreRequestFailed, nil, res.String())
	}

	var restoreResp restoreResponse
	if err := json.NewDecoder(res.Body).Decode(&restoreResp); err != nil {
		return restoreErr(ErrRestoreRequestFailed, fmt.Errorf("failed to decode response: %w", err), "")
	}

	if !restoreResp.Accepted {
		return restoreErr(ErrRestoreNotAccepted, nil, res.Status())
	}

	return nil
}
