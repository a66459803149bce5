package scan

import "fmt"

// EventKind identifies what an Event reports
type EventKind int

const (
	// EventNotice is a diagnostic message, e.g. no snapshots were found
	EventNotice EventKind = iota
	// EventProgress is emitted once per processed snapshot
	EventProgress
	// EventRestoreFailed is emitted when restoring from a snapshot failed
	EventRestoreFailed
	// EventFinished marks the end of the snapshot walk
	EventFinished
	// EventIndices carries every index claimed during the scan, in discovery order
	EventIndices
)

func (k EventKind) String() string {
	switch k {
	case EventNotice:
		return "notice"
	case EventProgress:
		return "progress"
	case EventRestoreFailed:
		return "restore-failed"
	case EventFinished:
		return "finished"
	case EventIndices:
		return "indices"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a single progress report delivered to an Observer.
// Message is set for every kind except EventIndices, which sets Indices.
type Event struct {
	Kind     EventKind
	Snapshot string
	Message  string
	Indices  []string
	Err      error
}

// Observer receives scan progress. A nil Observer disables reporting.
type Observer func(Event)

const (
	noSnapshotsMessage = "No snapshots were loaded. This should not be expected."
	finishedMessage    = "finished processing"
)

func noticeEvent() Event {
	return Event{Kind: EventNotice, Message: noSnapshotsMessage}
}

func progressEvent(snapshot string, added, total int) Event {
	return Event{
		Kind:     EventProgress,
		Snapshot: snapshot,
		Message:  fmt.Sprintf("%s - added %d/%d", snapshot, added, total),
	}
}

func restoreFailedEvent(snapshot string, err error) Event {
	return Event{
		Kind:     EventRestoreFailed,
		Snapshot: snapshot,
		Message:  fmt.Sprintf("Failed to restore indices from snapshot %s", snapshot),
		Err:      err,
	}
}

func finishedEvent() Event {
	return Event{Kind: EventFinished, Message: finishedMessage}
}

func indicesEvent(indices []string) Event {
	return Event{Kind: EventIndices, Indices: indices}
}
