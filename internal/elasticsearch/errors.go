package elasticsearch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRestoreRequestFailed means the restore call itself failed: transport
	// error, error status or an unreadable response
	ErrRestoreRequestFailed = errors.New("restore request failed")
	// ErrRestoreNotAccepted means the cluster answered without acknowledging the restore
	ErrRestoreNotAccepted = errors.New("restore was not accepted")
)

// RestoreError describes a failed restore of indices from a snapshot.
// Kind is ErrRestoreRequestFailed or ErrRestoreNotAccepted.
type RestoreError struct {
	Repository string
	Snapshot   string
	Indices    string
	Kind       error
	Cause      error
	Detail     string
}

func (e *RestoreError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v (repository: %s, snapshot: %s, indices: %s)", e.Kind, e.Repository, e.Snapshot, e.Indices)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *RestoreError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
