// Package kernelerr defines the error taxonomy shared by the entity,
// store, and service layers. Callers use errors.Is against the sentinel
// values; wrapping with fmt.Errorf("...: %w", ...) preserves that.
package kernelerr

import "errors"

var (
	// ErrNotFound is returned when an entity id is unknown to the store.
	ErrNotFound = errors.New("kernelerr: not found")

	// ErrAlreadyExists is returned when creating an id that is currently
	// live or tombstoned (deleted ids are never recreated).
	ErrAlreadyExists = errors.New("kernelerr: already exists")

	// ErrVersionAlreadyExists is returned when a new-version mutator would
	// append content identical to the current latest version. Services
	// translate this into a no-op success; it is a real error to the
	// entity layer.
	ErrVersionAlreadyExists = errors.New("kernelerr: version already exists")

	// ErrAssetSlotUnknown is returned when binding a URI into a slot that
	// was not declared on the latest version.
	ErrAssetSlotUnknown = errors.New("kernelerr: asset slot unknown")

	// ErrDuplicateReference is returned when replaying a bundle/journal
	// history that adds the same reference id twice. Live AddItem and
	// InsertItem calls treat a repeated id as a no-op instead.
	ErrDuplicateReference = errors.New("kernelerr: duplicate reference")

	// ErrUnknownReference is returned when a reference is removed or
	// looked up by an id not present in the container.
	ErrUnknownReference = errors.New("kernelerr: unknown reference")

	// ErrAlreadyDeleted is returned for reads and mutations attempted
	// against a tombstoned entity. Re-creating a deleted id fails with
	// ErrAlreadyExists instead.
	ErrAlreadyDeleted = errors.New("kernelerr: already deleted")

	// ErrRetryableExhausted is surfaced once the retry budget around a
	// transient backend failure is exhausted.
	ErrRetryableExhausted = errors.New("kernelerr: retry budget exhausted")

	// ErrChangeLogAppendFailed is surfaced when the entity write succeeded
	// but the corresponding change-log append did not.
	ErrChangeLogAppendFailed = errors.New("kernelerr: change log append failed")

	// ErrValidation flags malformed input at a service/HTTP boundary.
	ErrValidation = errors.New("kernelerr: validation error")
)
