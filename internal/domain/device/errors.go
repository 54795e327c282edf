package device

import "errors"

var (
	ErrRecordNotFound = errors.New("device record not found")

	// ErrReconcileInProgress is returned when a reconcile pass is already
	// running for the same owner. Concurrent passes could double-submit.
	ErrReconcileInProgress = errors.New("a sync reconcile pass is already running for this owner")
)
