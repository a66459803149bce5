package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvista/snapshot-reconciler/internal/connection"
)

// mockESServer creates a test HTTP server with Elasticsearch headers
func mockESServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Add Elasticsearch headers for client validation
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
}

// newTestClient points a client at the given test server
func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client, err := NewClient(connection.New(
		connection.WithServer(u.Hostname()),
		connection.WithPort(port),
	), opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(connection.New())
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.Equal(t, DefaultIgnoreIndexSettings, client.IgnoreIndexSettings())
}

func TestNewClient_InvalidConnection(t *testing.T) {
	client, err := NewClient(nil)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, connection.ErrInvalidConnection)
}

func TestNewClient_WithIgnoreIndexSettings(t *testing.T) {
	client, err := NewClient(connection.New(), WithIgnoreIndexSettings([]string{"index.routing.allocation.require.zone"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"index.routing.allocation.require.zone"}, client.IgnoreIndexSettings())

	client, err = NewClient(connection.New(), WithIgnoreIndexSettings(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultIgnoreIndexSettings, client.IgnoreIndexSettings())
}

func TestNewClient_SendsCredentials(t *testing.T) {
	server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "elastic", user)
		assert.Equal(t, "changeme", pass)
		_, _ = w.Write([]byte("i-1\n"))
	})
	defer server.Close()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client, err := NewClient(connection.New(
		connection.WithServer(u.Hostname()),
		connection.WithPort(port),
		connection.WithCredentials("elastic", "changeme"),
	))
	require.NoError(t, err)

	indices, err := client.ListIndices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1"}, indices)
}

func TestClient_ListIndices(t *testing.T) {
	tests := []struct {
		name            string
		responseBody    string
		responseStatus  int
		expectedIndices []string
		expectError     bool
	}{
		{
			name:            "parses raw text",
			responseBody:    "i-1\ni-2\n",
			responseStatus:  http.StatusOK,
			expectedIndices: []string{"i-1", "i-2"},
		},
		{
			name:            "trailing blank lines trimmed",
			responseBody:    "i-1\ni-2\n\n\n",
			responseStatus:  http.StatusOK,
			expectedIndices: []string{"i-1", "i-2"},
		},
		{
			name:            "empty cluster",
			responseBody:    "",
			responseStatus:  http.StatusOK,
			expectedIndices: []string{},
		},
		{
			name:           "elasticsearch returns error",
			responseBody:   `{"error": "boom"}`,
			responseStatus: http.StatusInternalServerError,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
				requests++
				assert.Equal(t, "/_cat/indices", r.URL.Path)
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "index", r.URL.Query().Get("h"))

				w.WriteHeader(tt.responseStatus)
				_, _ = w.Write([]byte(tt.responseBody))
			})
			defer server.Close()

			client := newTestClient(t, server)

			indices, err := client.ListIndices(context.Background())
			assert.Equal(t, 1, requests, "no retries expected")

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedIndices, indices)
		})
	}
}

func TestClient_ListIndices_TransportFailure(t *testing.T) {
	server := mockESServer(func(w http.ResponseWriter, _ *http.Request) {})
	client := newTestClient(t, server)
	server.Close()

	_, err := client.ListIndices(context.Background())
	assert.Error(t, err)
}

func TestClient_ListIndicesDetailed(t *testing.T) {
	server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_cat/indices", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		_, _ = w.Write([]byte(`[
			{"health": "green", "status": "open", "index": "logs-2024.01.01", "uuid": "u1", "pri": "1", "rep": "1", "docs.count": "42", "store.size": "1mb", "pri.store.size": "512kb"}
		]`))
	})
	defer server.Close()

	client := newTestClient(t, server)

	indices, err := client.ListIndicesDetailed(context.Background())
	require.NoError(t, err)
	require.Len(t, indices, 1)
	assert.Equal(t, "logs-2024.01.01", indices[0].Index)
	assert.Equal(t, "42", indices[0].DocsCount)
}

func TestClient_ListSnapshots(t *testing.T) {
	tests := []struct {
		name           string
		responseBody   string
		responseStatus int
		expected       []SnapshotRecord
		expectError    bool
	}{
		{
			name:           "sorted by name descending",
			responseStatus: http.StatusOK,
			responseBody: `{
				"snapshots": [
					{"snapshot": "s-1", "indices": ["i-1"], "state": "SUCCESS"},
					{"snapshot": "s-2", "indices": ["i-1", "i-2"], "state": "SUCCESS"}
				]
			}`,
			expected: []SnapshotRecord{
				{Name: "s-2", Indices: []string{"i-1", "i-2"}},
				{Name: "s-1", Indices: []string{"i-1"}},
			},
		},
		{
			name:           "failed snapshots are excluded",
			responseStatus: http.StatusOK,
			responseBody: `{
				"snapshots": [
					{"snapshot": "s-1", "indices": ["i-1"], "state": "FAILED"},
					{"snapshot": "s-2", "indices": ["i-1", "i-2"], "state": "SUCCESS"},
					{"snapshot": "s-3", "indices": ["i-3"], "state": "IN_PROGRESS"},
					{"snapshot": "s-4", "indices": ["i-4"], "state": "PARTIAL"}
				]
			}`,
			expected: []SnapshotRecord{
				{Name: "s-2", Indices: []string{"i-1", "i-2"}},
			},
		},
		{
			name:           "snapshot without indices",
			responseStatus: http.StatusOK,
			responseBody:   `{"snapshots": [{"snapshot": "s-1", "state": "SUCCESS"}]}`,
			expected: []SnapshotRecord{
				{Name: "s-1", Indices: []string{}},
			},
		},
		{
			name:           "missing repository yields empty list",
			responseStatus: http.StatusNotFound,
			responseBody:   `{"error": {"type": "repository_missing_exception"}, "status": 404}`,
			expected:       []SnapshotRecord{},
		},
		{
			name:           "server error propagates",
			responseStatus: http.StatusInternalServerError,
			responseBody:   `{"error": "boom"}`,
			expectError:    true,
		},
		{
			name:           "malformed response propagates",
			responseStatus: http.StatusOK,
			responseBody:   `{"snapshots": [`,
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/_snapshot/my-repo/s-*", r.URL.Path)
				assert.Equal(t, http.MethodGet, r.Method)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.responseStatus)
				_, _ = w.Write([]byte(tt.responseBody))
			})
			defer server.Close()

			client := newTestClient(t, server)

			snapshots, err := client.ListSnapshots(context.Background(), "my-repo", "s-*")

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, snapshots)
		})
	}
}

func TestClient_GetSnapshot(t *testing.T) {
	tests := []struct {
		name         string
		snapshotName string
		responseBody string
		expectError  bool
	}{
		{
			name:         "successful get snapshot",
			snapshotName: "snapshot-2024-01-01",
			responseBody: `{
				"snapshots": [
					{
						"snapshot": "snapshot-2024-01-01",
						"uuid": "uuid-1",
						"repository": "test-repo",
						"state": "SUCCESS",
						"indices": ["index-1", "index-2"]
					}
				]
			}`,
		},
		{
			name:         "snapshot not found",
			snapshotName: "nonexistent",
			responseBody: `{"snapshots": []}`,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/_snapshot/test-repo/"+tt.snapshotName, r.URL.Path)
				_, _ = w.Write([]byte(tt.responseBody))
			})
			defer server.Close()

			client := newTestClient(t, server)

			snapshot, err := client.GetSnapshot(context.Background(), "test-repo", tt.snapshotName)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.snapshotName, snapshot.Snapshot)
			assert.Equal(t, []string{"index-1", "index-2"}, snapshot.Indices)
		})
	}
}

func TestClient_RestoreIndices(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		responseBody   string
		expectedKind   error
	}{
		{
			name:           "accepted restore",
			responseStatus: http.StatusOK,
			responseBody:   `{"accepted": true}`,
		},
		{
			name:           "not accepted",
			responseStatus: http.StatusOK,
			responseBody:   `{"accepted": false}`,
			expectedKind:   ErrRestoreNotAccepted,
		},
		{
			name:           "acknowledgment missing",
			responseStatus: http.StatusOK,
			responseBody:   `{}`,
			expectedKind:   ErrRestoreNotAccepted,
		},
		{
			name:           "snapshot not found",
			responseStatus: http.StatusNotFound,
			responseBody:   `{"error": {"type": "snapshot_missing_exception"}}`,
			expectedKind:   ErrRestoreRequestFailed,
		},
		{
			name:           "malformed response",
			responseStatus: http.StatusOK,
			responseBody:   `not json`,
			expectedKind:   ErrRestoreRequestFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/_snapshot/my-repo/snapshot/_restore", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				var req map[string]interface{}
				assert.NoError(t, json.Unmarshal(body, &req))
				assert.Equal(t, "i-1,i-2", req["indices"])
				assert.Equal(t, []interface{}{"index.routing.allocation.require.data_type_tag"}, req["ignore_index_settings"])

				w.WriteHeader(tt.responseStatus)
				_, _ = w.Write([]byte(tt.responseBody))
			})
			defer server.Close()

			client := newTestClient(t, server)

			err := client.RestoreIndices(context.Background(), "my-repo", "snapshot", "i-1,i-2")

			if tt.expectedKind == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedKind)

			var restoreErr *RestoreError
			require.True(t, errors.As(err, &restoreErr))
			assert.Equal(t, "my-repo", restoreErr.Repository)
			assert.Equal(t, "snapshot", restoreErr.Snapshot)
			assert.Equal(t, "i-1,i-2", restoreErr.Indices)
		})
	}
}

func TestClient_RestoreIndices_CustomIgnoreSettings(t *testing.T) {
	server := mockESServer(func(w http.ResponseWriter, r *http.Request) {
		var req restoreRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"index.routing.allocation.require.zone"}, req.IgnoreIndexSettings)
		_, _ = w.Write([]byte(`{"accepted": true}`))
	})
	defer server.Close()

	client := newTestClient(t, server, WithIgnoreIndexSettings([]string{"index.routing.allocation.require.zone"}))

	assert.NoError(t, client.RestoreIndices(context.Background(), "my-repo", "snapshot", "index"))
}

func TestClient_RestoreIndices_TransportFailure(t *testing.T) {
	server := mockESServer(func(w http.ResponseWriter, _ *http.Request) {})
	client := newTestClient(t, server)
	server.Close()

	err := client.RestoreIndices(context.Background(), "my-repo", "snapshot", "index")
	assert.ErrorIs(t, err, ErrRestoreRequestFailed)
	assert.NotErrorIs(t, err, ErrRestoreNotAccepted)
}

func TestRestoreError_Error(t *testing.T) {
	err := &RestoreError{
		Repository: "repo",
		Snapshot:   "s-1",
		Indices:    "i-1",
		Kind:       ErrRestoreNotAccepted,
		Detail:     "200 OK",
	}
	assert.Equal(t, "restore was not accepted (repository: repo, snapshot: s-1, indices: i-1): 200 OK", err.Error())
}
