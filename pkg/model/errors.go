package model

import "errors"

// Sentinel errors for the engine's failure taxonomy. Validation errors
// (capacity, bounds, duplicates) block the originating action and leave
// state unchanged; nothing here is fatal to the process.
var (
	// ErrCapacityExceeded rejects an add-view beyond the configured maximum.
	ErrCapacityExceeded = errors.New("view capacity exceeded")

	// ErrViewNotFound reports an operation against an unknown view id.
	ErrViewNotFound = errors.New("view not found")

	// ErrDuplicateViewID rejects a mutation that would duplicate a view id.
	ErrDuplicateViewID = errors.New("duplicate view id")

	// ErrDragActive rejects starting a drag while another session is live.
	ErrDragActive = errors.New("drag session already active")

	// ErrNoDragSession reports drag operations with no live session.
	ErrNoDragSession = errors.New("no active drag session")

	// ErrPersistenceFailure reports a save that failed after all retries.
	// Local dirty state is preserved when this is surfaced.
	ErrPersistenceFailure = errors.New("persistence failed")

	// ErrRendererNotRegistered reports a sourceRef with no renderer factory.
	ErrRendererNotRegistered = errors.New("renderer not registered")

	// ErrInvalidAction rejects a malformed store action.
	ErrInvalidAction = errors.New("invalid action")
)
