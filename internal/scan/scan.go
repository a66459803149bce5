// Package scan reconciles the indices of a live cluster against the snapshots
// of a repository and restores whatever is missing.
//
// Snapshots are walked newest first. Each missing index is claimed by the first
// snapshot that holds it and is never requested again from an older one, so
// every index is restored from its most recent copy with one restore call per
// snapshot.
package scan

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stackvista/snapshot-reconciler/internal/connection"
	"github.com/stackvista/snapshot-reconciler/internal/elasticsearch"
)

// Result maps a snapshot name to the indices restored from it.
// Only snapshots that restored at least one index are present.
type Result map[string][]string

// Snapshots returns the snapshot names of the result, newest first
func (r Result) Snapshots() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names
}

// Restored returns the number of indices restored across all snapshots
func (r Result) Restored() int {
	n := 0
	for _, indices := range r {
		n += len(indices)
	}
	return n
}

// Scanner runs reconciliation scans against one cluster
type Scanner struct {
	client elasticsearch.Interface
}

// New creates a Scanner on top of a cluster client
func New(client elasticsearch.Interface) *Scanner {
	return &Scanner{client: client}
}

// Scan connects to the cluster described by info and runs a single scan of
// the snapshots in repository matching pattern
func Scan(ctx context.Context, info *connection.Info, repository, pattern string, onUpdate Observer, opts ...elasticsearch.Option) (Result, error) {
	client, err := elasticsearch.NewClient(info, opts...)
	if err != nil {
		return nil, err
	}
	return New(client).Scan(ctx, repository, pattern, onUpdate)
}

// Scan restores every index that is missing from the cluster but captured by a
// successful snapshot in repository matching pattern.
//
// Listing failures abort the scan and are returned as is. A failed restore is
// reported to onUpdate and the scan moves on to the next snapshot.
//
// A canceled ctx stops the scan before the next snapshot. Scan then returns
// the restores accepted so far with ctx.Err() and does not emit the
// finished or indices events.
func (s *Scanner) Scan(ctx context.Context, repository, pattern string, onUpdate Observer) (Result, error) {
	notify := func(e Event) {
		if onUpdate != nil {
			onUpdate(e)
		}
	}

	snapshots, live, err := s.load(ctx, repository, pattern)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(live))
	for _, index := range live {
		present[index] = struct{}{}
	}

	claimed := make(map[string]struct{})
	found := make([]string, 0)
	result := Result{}

	if len(snapshots) == 0 {
		notify(noticeEvent())
	}

	for _, snapshot := range snapshots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		newlyFound := claim(snapshot.Indices, present, claimed)
		found = append(found, newlyFound...)

		notify(progressEvent(snapshot.Name, len(newlyFound), len(snapshot.Indices)))

		if len(newlyFound) == 0 {
			continue
		}

		if err := s.client.RestoreIndices(ctx, repository, snapshot.Name, strings.Join(newlyFound, ",")); err != nil {
			notify(restoreFailedEvent(snapshot.Name, err))
			continue
		}
		result[snapshot.Name] = newlyFound
	}

	notify(finishedEvent())
	notify(indicesEvent(found))

	return result, nil
}

// load fetches the snapshot list and the live index list concurrently
func (s *Scanner) load(ctx context.Context, repository, pattern string) ([]elasticsearch.SnapshotRecord, []string, error) {
	var (
		snapshots []elasticsearch.SnapshotRecord
		live      []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshots, err = s.client.ListSnapshots(gctx, repository, pattern)
		return err
	})
	g.Go(func() error {
		var err error
		live, err = s.client.ListIndices(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return snapshots, live, nil
}

// claim returns the indices of a snapshot that are neither live nor already
// claimed, in snapshot order, and marks them as claimed
func claim(indices []string, present, claimed map[string]struct{}) []string {
	var newlyFound []string
	for _, index := range indices {
		if _, ok := present[index]; ok {
			continue
		}
		if _, ok := claimed[index]; ok {
			continue
		}
		claimed[index] = struct{}{}
		newlyFound = append(newlyFound, index)
	}
	return newlyFound
}
